package handler

import (
	"context"

	"google.golang.org/grpc"

	"identity-platform/backend/internal/platform/either"
	"identity-platform/backend/internal/server/interceptors"
	"identity-platform/backend/internal/server/rpc"
)

// ServiceName is the gRPC service implemented by Server.
const ServiceName = "identity.role.v1.RoleService"

// UseCases is the role service as seen by the transport.
type UseCases interface {
	AssignRole(ctx context.Context, principalID, roleName string) either.Either[error, struct{}]
	UpdatePermissions(ctx context.Context, callerID, roleName string, grant, revoke []string) either.Either[error, []string]
}

type AssignRoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type UpdatePermissionsRequest struct {
	Role   string   `json:"role"`
	Grant  []string `json:"grant,omitempty"`
	Revoke []string `json:"revoke,omitempty"`
}

type UpdatePermissionsResponse struct {
	Permissions []string `json:"permissions"`
}

// Server implements RoleService.
type Server struct {
	roles UseCases
}

func NewServer(roles UseCases) *Server {
	return &Server{roles: roles}
}

// Register adds RoleService to s.
func (s *Server) Register(r grpc.ServiceRegistrar) {
	rpc.Register(r, ServiceName,
		rpc.Unary("AssignRole", s.AssignRole),
		rpc.Unary("UpdatePermissions", s.UpdatePermissions),
	)
}

func (s *Server) AssignRole(ctx context.Context, req *AssignRoleRequest) (*rpc.Empty, error) {
	if _, err := either.Unwrap(s.roles.AssignRole(ctx, req.UserID, req.Role)); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

func (s *Server) UpdatePermissions(ctx context.Context, req *UpdatePermissionsRequest) (*UpdatePermissionsResponse, error) {
	caller, err := interceptors.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}
	perms, err := either.Unwrap(s.roles.UpdatePermissions(ctx, caller.PrincipalID.String(), req.Role, req.Grant, req.Revoke))
	if err != nil {
		return nil, err
	}
	return &UpdatePermissionsResponse{Permissions: perms}, nil
}
