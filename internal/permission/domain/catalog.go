// Package domain holds the static permission catalog and the permission value types.
package domain

// Catalog entries. Names follow the action_resource convention.
const (
	UsersCreate = "create_user"
	UsersRead   = "read_user"
	UsersUpdate = "update_user"
	UsersDelete = "delete_user"
	UsersList   = "list_users"

	SessionsList   = "list_sessions"
	SessionsRevoke = "revoke_session"

	RolesCreate = "create_role"
	RolesRead   = "read_role"
	RolesUpdate = "update_role"
	RolesDelete = "delete_role"
	RolesList   = "list_roles"
	RolesAssign = "assign_role"

	SystemAdminsCreate = "create_system_admin"

	EmailsSend = "send_email"
)

// AllPermissions enumerates the catalog in declaration order.
var AllPermissions = []string{
	UsersCreate, UsersRead, UsersUpdate, UsersDelete, UsersList,
	SessionsList, SessionsRevoke,
	RolesCreate, RolesRead, RolesUpdate, RolesDelete, RolesList, RolesAssign,
	SystemAdminsCreate,
	EmailsSend,
}

var known = func() map[string]struct{} {
	m := make(map[string]struct{}, len(AllPermissions))
	for _, p := range AllPermissions {
		m[p] = struct{}{}
	}
	return m
}()

// IsKnown reports whether s is a catalog entry.
func IsKnown(s string) bool {
	_, ok := known[s]
	return ok
}
