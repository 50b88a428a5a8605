package interceptors

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"identity-platform/backend/internal/apperr"
	"identity-platform/backend/internal/platform/either"
	"identity-platform/backend/internal/security"
	sessiondomain "identity-platform/backend/internal/session/domain"
)

const bearerPrefix = "bearer "

var errRejectedToken = errors.New("token rejected")

// SessionValidator checks that an access token belongs to a stored, active session.
type SessionValidator interface {
	ValidateSession(ctx context.Context, rawToken string) either.Either[error, *sessiondomain.Session]
}

// AuthUnary returns a unary server interceptor that validates the Bearer access token from gRPC
// metadata and sets principal_id, role, session_id and the token in context for protected RPCs.
// The token must verify (signature, issuer, audience, expiry) and its session must be active in storage.
// publicMethods is the set of full method names that do not require a Bearer token
// (e.g. Login, RequestPasswordReset, Health Check).
func AuthUnary(tokens security.Decrypter, sessions SessionValidator, publicMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		token := extractBearer(ctx)
		public := publicMethods[info.FullMethod]

		if token == "" {
			if public {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
		}

		authed, err := authenticate(ctx, tokens, sessions, token)
		if errors.Is(err, errRejectedToken) {
			if public {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
		}
		if err != nil {
			return nil, ToStatus(err)
		}
		return handler(authed, req)
	}
}

// authenticate returns errRejectedToken when the token or its session is not acceptable, and the
// underlying error when the session store could not be consulted.
func authenticate(ctx context.Context, tokens security.Decrypter, sessions SessionValidator, token string) (context.Context, error) {
	payload, err := tokens.Decrypt(token)
	if err != nil {
		return ctx, errRejectedToken
	}
	result := sessions.ValidateSession(ctx, token)
	if result.IsLeft() {
		var ae *apperr.Error
		if errors.As(result.LeftValue(), &ae) {
			return ctx, errRejectedToken
		}
		return ctx, result.LeftValue()
	}
	sess := result.RightValue()
	if payload.String(security.SubjectClaim) != sess.RecipientID().String() {
		return ctx, errRejectedToken
	}
	return WithIdentity(ctx, sess.RecipientID().String(), payload.String(security.RoleClaim), sess.ID().String(), token), nil
}

// extractBearer returns the Bearer token from ctx metadata, or "" if missing or malformed.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
