package domain

import "time"

// Actions recorded by the identity use cases.
const (
	ActionLoginSuccess           = "login_success"
	ActionLoginFailure           = "login_failure"
	ActionLogout                 = "logout"
	ActionSessionRevoked         = "session_revoked"
	ActionPasswordResetRequested = "password_reset_requested"
	ActionPasswordReset          = "password_reset"
	ActionUserRegistered         = "user_registered"
	ActionRoleAssigned           = "role_assigned"
	ActionSystemAdminCreated     = "system_admin_created"
)

// AuditLog is a single audit record. PrincipalID is empty for unauthenticated actions
// such as a failed login.
type AuditLog struct {
	ID          string
	PrincipalID string
	Action      string
	Resource    string
	IP          string
	Metadata    string
	CreatedAt   time.Time
}
