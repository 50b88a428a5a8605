package rbac

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"identity-platform/backend/internal/apperr"
	permission "identity-platform/backend/internal/permission/domain"
	"identity-platform/backend/internal/server/interceptors"
)

// RoleGetter resolves the permissions of a role by name. Used by RequirePermissions to load the
// caller's grants.
type RoleGetter interface {
	GetPermissionsByName(ctx context.Context, name string) (*permission.List, error)
}

// RequirePermissions ensures the caller is authenticated and their role grants every required permission.
// Returns the caller's principal id on success; returns a gRPC error (Unauthenticated, PermissionDenied
// or Internal) on failure.
func RequirePermissions(ctx context.Context, roles RoleGetter, authorizer Authorizer, required ...permission.Name) (string, error) {
	principalID, okPrincipal := interceptors.GetPrincipalID(ctx)
	roleName, okRole := interceptors.GetRole(ctx)
	if !okPrincipal || principalID == "" || !okRole || roleName == "" {
		return "", status.Error(codes.Unauthenticated, "principal and role context required")
	}
	granted, err := roles.GetPermissionsByName(ctx, roleName)
	if err != nil {
		return "", status.Error(codes.Internal, "failed to resolve role")
	}
	if granted == nil {
		return "", status.Error(codes.PermissionDenied, "role "+roleName+" does not exist")
	}
	if err := authorizer.Authorize(ctx, granted, required...); err != nil {
		if errors.Is(err, apperr.ErrNotAllowed) {
			return "", status.Error(codes.PermissionDenied, err.Error())
		}
		return "", status.Error(codes.Internal, "failed to evaluate permissions")
	}
	return principalID, nil
}

// PermissionsUnary returns a unary server interceptor that enforces methodPermissions: each listed
// full method requires the given permissions via RequirePermissions. Unlisted methods pass through.
// It must run after the auth interceptor.
func PermissionsUnary(roles RoleGetter, authorizer Authorizer, methodPermissions map[string][]permission.Name) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		required, ok := methodPermissions[info.FullMethod]
		if !ok {
			return handler(ctx, req)
		}
		if _, err := RequirePermissions(ctx, roles, authorizer, required...); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}
