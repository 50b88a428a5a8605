package interceptors

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"identity-platform/backend/internal/platform/entity"
)

type contextKey struct{ name string }

var (
	principalIDKey = contextKey{"principal_id"}
	roleKey        = contextKey{"role"}
	sessionIDKey   = contextKey{"session_id"}
	accessTokenKey = contextKey{"access_token"}
)

// WithIdentity returns a context carrying the authenticated caller: principal_id, role, session_id
// and the raw access token the caller presented (needed to log out the current session).
func WithIdentity(ctx context.Context, principalID, role, sessionID, accessToken string) context.Context {
	ctx = context.WithValue(ctx, principalIDKey, principalID)
	ctx = context.WithValue(ctx, roleKey, role)
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	ctx = context.WithValue(ctx, accessTokenKey, accessToken)
	return ctx
}

// GetPrincipalID returns the principal_id from context and true if set; otherwise "", false.
func GetPrincipalID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(principalIDKey).(string)
	return v, ok
}

// GetRole returns the caller's role name from context and true if set; otherwise "", false.
func GetRole(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(roleKey).(string)
	return v, ok
}

// GetSessionID returns the session_id from context and true if set; otherwise "", false.
func GetSessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionIDKey).(string)
	return v, ok
}

func GetAccessToken(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(accessTokenKey).(string)
	return v, ok
}

// Caller is the authenticated principal of a request.
type Caller struct {
	PrincipalID entity.ID
	Role        string
	AccessToken string
}

// RequireCaller returns the authenticated caller, or an Unauthenticated status when the request
// carries no identity.
func RequireCaller(ctx context.Context) (Caller, error) {
	id, ok := GetPrincipalID(ctx)
	if !ok || id == "" {
		return Caller{}, status.Error(codes.Unauthenticated, "authentication required")
	}
	principalID, err := entity.ParseID(id)
	if err != nil {
		return Caller{}, status.Error(codes.Unauthenticated, "authentication required")
	}
	role, _ := GetRole(ctx)
	token, _ := GetAccessToken(ctx)
	return Caller{PrincipalID: principalID, Role: role, AccessToken: token}, nil
}
