// Package service implements role assignment and role permission management.
package service

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"identity-platform/backend/internal/apperr"
	"identity-platform/backend/internal/audit"
	auditdomain "identity-platform/backend/internal/audit/domain"
	"identity-platform/backend/internal/db"
	identityrepo "identity-platform/backend/internal/identity/repository"
	permission "identity-platform/backend/internal/permission/domain"
	"identity-platform/backend/internal/platform/either"
	"identity-platform/backend/internal/role/domain"
	"identity-platform/backend/internal/role/repository"
)

// RoleService implements the role use cases.
type RoleService struct {
	roles repository.Repository
	auths identityrepo.Repository
	tx    db.Transactor
	audit audit.AuditLogger
	clock clockwork.Clock
	log   logrus.FieldLogger
}

// NewRoleService returns a RoleService. auditLogger may be nil.
func NewRoleService(roles repository.Repository, auths identityrepo.Repository, tx db.Transactor, auditLogger audit.AuditLogger, clock clockwork.Clock, log logrus.FieldLogger) *RoleService {
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	return &RoleService{roles: roles, auths: auths, tx: tx, audit: auditLogger, clock: clock, log: log}
}

// AssignRole moves the principal from its current role's members to roleName's members and
// records the new role on its credentials. The system admin role is never assigned or taken
// away here; it belongs to the principal created by CreateSystemAdmin.
func (s *RoleService) AssignRole(ctx context.Context, principalID, roleName string) either.Either[error, struct{}] {
	name, err := domain.ParseName(roleName)
	if err != nil {
		return either.Left[error, struct{}](err)
	}
	if name.String() == domain.SystemAdmin {
		return either.Left[error, struct{}](apperr.NotAllowed("system_admin cannot be assigned"))
	}
	var (
		from    string
		changed bool
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		auth, err := s.auths.FindByID(ctx, principalID)
		if err != nil {
			return err
		}
		if auth == nil {
			return apperr.ResourceNotFound("user auth")
		}
		if auth.Role.String() == domain.SystemAdmin {
			return apperr.NotAllowed("system admin role cannot be changed")
		}
		if auth.Role.Equal(name) {
			return nil
		}
		target, err := s.roles.GetByName(ctx, name.String())
		if err != nil {
			return err
		}
		if target == nil {
			return apperr.ResourceNotFound("role")
		}

		if !auth.Role.IsZero() {
			current, err := s.roles.GetByName(ctx, auth.Role.String())
			if err != nil {
				return err
			}
			if current != nil {
				current.RemoveMember(auth.ID())
				if err := s.roles.Save(ctx, current); err != nil {
					return err
				}
			}
		}
		target.AddMember(auth.ID())
		if err := s.roles.Save(ctx, target); err != nil {
			return err
		}
		from = auth.Role.String()
		auth.AssignRole(name, s.clock.Now().UTC())
		if err := s.auths.Save(ctx, auth); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return either.Left[error, struct{}](err)
	}
	if !changed {
		return either.Right[error](struct{}{})
	}

	s.log.WithFields(logrus.Fields{"principal_id": principalID, "from": from, "to": name.String()}).Info("role assigned")
	s.audit.LogEvent(ctx, principalID, auditdomain.ActionRoleAssigned, "user", from+"->"+name.String())
	return either.Right[error](struct{}{})
}

// UpdatePermissions grants and revokes permissions on a role. Unknown permission names are rejected
// before anything changes. The system_admin role is fixed, and a caller can grant only permissions
// its own role holds.
func (s *RoleService) UpdatePermissions(ctx context.Context, callerID, roleName string, grant, revoke []string) either.Either[error, []string] {
	granted, err := permission.ParseNames(grant...)
	if err != nil {
		return either.Left[error, []string](err)
	}
	revoked, err := permission.ParseNames(revoke...)
	if err != nil {
		return either.Left[error, []string](err)
	}
	if roleName == domain.SystemAdmin {
		return either.Left[error, []string](apperr.NotAllowed("system_admin permissions cannot be changed"))
	}
	held, err := s.callerPermissions(ctx, callerID)
	if err != nil {
		return either.Left[error, []string](err)
	}
	for _, p := range granted {
		if !held.Has(p) {
			return either.Left[error, []string](apperr.NotAllowed("cannot grant " + p.String() + " without holding it"))
		}
	}

	var perms []string
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		role, err := s.roles.GetByName(ctx, roleName)
		if err != nil {
			return err
		}
		if role == nil {
			return apperr.ResourceNotFound("role")
		}
		role.Grant(granted...)
		role.Revoke(revoked...)
		if err := s.roles.Save(ctx, role); err != nil {
			return err
		}
		perms = role.Permissions.Strings()
		return nil
	})
	if err != nil {
		return either.Left[error, []string](err)
	}
	return either.Right[error](perms)
}

func (s *RoleService) callerPermissions(ctx context.Context, callerID string) (*permission.List, error) {
	auth, err := s.auths.FindByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if auth == nil {
		return nil, apperr.NotAllowed("caller has no credentials")
	}
	perms, err := s.roles.GetPermissionsByName(ctx, auth.Role.String())
	if err != nil {
		return nil, err
	}
	if perms == nil {
		return permission.NewList(), nil
	}
	return perms, nil
}

// DefaultPermissions is the permission set each built-in role starts with.
var DefaultPermissions = map[string][]string{
	domain.SystemAdmin: permission.AllPermissions,
	domain.Admin: {
		permission.UsersList, permission.UsersRead, permission.UsersUpdate,
		permission.SessionsList, permission.SessionsRevoke,
		permission.RolesRead, permission.RolesList, permission.RolesAssign, permission.RolesUpdate,
	},
	domain.Member: {permission.SessionsList, permission.SessionsRevoke},
}

// EnsureDefaults creates missing built-in roles and grants them their DefaultPermissions.
// Permissions granted or revoked later are left alone except that defaults are re-granted.
func (s *RoleService) EnsureDefaults(ctx context.Context) error {
	for _, roleName := range []string{domain.SystemAdmin, domain.Admin, domain.Member} {
		perms, err := permission.ParseNames(DefaultPermissions[roleName]...)
		if err != nil {
			return err
		}
		role, err := s.roles.GetByName(ctx, roleName)
		if err != nil {
			return err
		}
		if role == nil {
			role = domain.New(domain.Props{Name: domain.MustParseName(roleName), CreatedAt: s.clock.Now().UTC()})
		}
		role.Grant(perms...)
		if err := s.roles.Save(ctx, role); err != nil {
			return err
		}
		s.log.WithField("role", roleName).Debug("role defaults ensured")
	}
	return nil
}
