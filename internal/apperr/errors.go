// Package apperr defines the application's typed failures. Use cases return them in the Left branch
// of an either.Either; the gRPC layer maps their Kind to status codes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the category of an Error.
type Kind string

const (
	// KindValidation marks a value that failed construction-time validation.
	KindValidation Kind = "validation"
	// KindDomain marks a business-rule failure raised by a use case.
	KindDomain Kind = "domain"
	// KindExternal marks a failure of an external collaborator the core reports as a value (e.g. email delivery).
	KindExternal Kind = "external"
)

// Error is a typed application failure. Two Errors match under errors.Is when their codes are equal,
// so a detailed error compares equal to the package sentinel with the same code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func sentinel(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Validation errors.
var (
	ErrInvalidPermissionName     = sentinel(KindValidation, "invalid_permission_name", "invalid permission name")
	ErrInvalidRoleName           = sentinel(KindValidation, "invalid_role_name", "invalid role name")
	ErrInvalidPaginationParams   = sentinel(KindValidation, "invalid_pagination_params", "invalid pagination params")
	ErrInvalidUpdatedAt          = sentinel(KindValidation, "invalid_updated_at", "updated at must not be before created at")
	ErrInvalidSessionDateExpired = sentinel(KindValidation, "invalid_session_date_expired", "session expires at must not be before created at")
	ErrInvalidSessionDateRevoked = sentinel(KindValidation, "invalid_session_date_revoked", "session revoked at must not be before created at")
	ErrInvalidEmail              = sentinel(KindValidation, "invalid_email", "invalid email address")
	ErrInvalidName               = sentinel(KindValidation, "invalid_name", "invalid name")
	ErrInvalidLocale             = sentinel(KindValidation, "invalid_locale", "unsupported locale")
	ErrInvalidActionLink         = sentinel(KindValidation, "invalid_action_link", "action link must be an absolute URL")
	ErrInvalidAccessToken        = sentinel(KindValidation, "invalid_access_token", "access token must not be empty")
	ErrInvalidPassword           = sentinel(KindValidation, "invalid_password", "invalid password")
	ErrInvalidID                 = sentinel(KindValidation, "invalid_id", "identifier must not be empty")
)

// Domain errors.
var (
	ErrResourceNotFound         = sentinel(KindDomain, "resource_not_found", "resource not found")
	ErrNotAllowed               = sentinel(KindDomain, "not_allowed", "not allowed")
	ErrSessionExpired           = sentinel(KindDomain, "session_expired", "session expired")
	ErrWrongCredentials         = sentinel(KindDomain, "wrong_credentials", "wrong credentials")
	ErrSystemAdminAlreadyExists = sentinel(KindDomain, "system_admin_already_exists", "system admin already exists")
	ErrEmailAlreadyRegistered   = sentinel(KindDomain, "email_already_registered", "email already registered")
)

// ErrSendEmail is returned by email senders when delivery fails.
var ErrSendEmail = sentinel(KindExternal, "send_email", "failed to send email")

// Wrap returns a copy of base with a detailed message and optional cause.
func Wrap(base *Error, msg string, cause error) *Error {
	return &Error{Kind: base.Kind, Code: base.Code, Message: msg, Cause: cause}
}

// InvalidPermissionName reports that name is not in the permission catalog.
func InvalidPermissionName(name string) *Error {
	return Wrap(ErrInvalidPermissionName, fmt.Sprintf("invalid permission name %q", name), nil)
}

// InvalidRoleName reports a malformed role name.
func InvalidRoleName(name string) *Error {
	return Wrap(ErrInvalidRoleName, fmt.Sprintf("invalid role name %q", name), nil)
}

// ResourceNotFound reports that the named resource does not exist.
func ResourceNotFound(resource string) *Error {
	return Wrap(ErrResourceNotFound, resource+" not found", nil)
}

// NotAllowed reports a denied operation with a reason.
func NotAllowed(reason string) *Error {
	return Wrap(ErrNotAllowed, "not allowed: "+reason, nil)
}

// SendEmail wraps a delivery failure.
func SendEmail(cause error) *Error {
	return Wrap(ErrSendEmail, ErrSendEmail.Message, cause)
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
