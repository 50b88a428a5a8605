package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"identity-platform/backend/internal/platform/either"
	"identity-platform/backend/internal/server/interceptors"
	"identity-platform/backend/internal/server/rpc"
	"identity-platform/backend/internal/user/domain"
	userservice "identity-platform/backend/internal/user/service"
)

// ServiceName is the gRPC service implemented by Server.
const ServiceName = "identity.user.v1.UserService"

// UseCases is the user service as seen by the transport.
type UseCases interface {
	RegisterUser(ctx context.Context, in userservice.RegisterInput) either.Either[error, *domain.User]
	GetUser(ctx context.Context, id string) either.Either[error, *domain.User]
	UpdateProfile(ctx context.Context, id string, upd userservice.ProfileUpdate) either.Either[error, *domain.User]
	ListUsers(ctx context.Context, page, perPage int) either.Either[error, []*domain.User]
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Locale    string    `json:"locale"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RegisterUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Locale   string `json:"locale,omitempty"`
}

type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// UpdateProfileRequest changes the caller's own profile; omitted fields are kept.
type UpdateProfileRequest struct {
	Name   *string `json:"name,omitempty"`
	Locale *string `json:"locale,omitempty"`
}

type ListUsersRequest struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

type ListUsersResponse struct {
	Users []User `json:"users"`
}

// Server implements UserService for registration and profiles.
type Server struct {
	users UseCases
}

// NewServer returns a new User gRPC server.
func NewServer(users UseCases) *Server {
	return &Server{users: users}
}

// Register adds UserService to s.
func (s *Server) Register(r grpc.ServiceRegistrar) {
	rpc.Register(r, ServiceName,
		rpc.Unary("RegisterUser", s.RegisterUser),
		rpc.Unary("GetMe", s.GetMe),
		rpc.Unary("GetUser", s.GetUser),
		rpc.Unary("UpdateProfile", s.UpdateProfile),
		rpc.Unary("ListUsers", s.ListUsers),
	)
}

func (s *Server) RegisterUser(ctx context.Context, req *RegisterUserRequest) (*User, error) {
	return one(s.users.RegisterUser(ctx, userservice.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Locale:   req.Locale,
	}))
}

// GetMe returns the caller's own profile.
func (s *Server) GetMe(ctx context.Context, _ *rpc.Empty) (*User, error) {
	caller, err := interceptors.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}
	return one(s.users.GetUser(ctx, caller.PrincipalID.String()))
}

func (s *Server) GetUser(ctx context.Context, req *GetUserRequest) (*User, error) {
	return one(s.users.GetUser(ctx, req.UserID))
}

func (s *Server) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*User, error) {
	caller, err := interceptors.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}
	return one(s.users.UpdateProfile(ctx, caller.PrincipalID.String(), userservice.ProfileUpdate{
		Name:   req.Name,
		Locale: req.Locale,
	}))
}

func (s *Server) ListUsers(ctx context.Context, req *ListUsersRequest) (*ListUsersResponse, error) {
	list, err := either.Unwrap(s.users.ListUsers(ctx, req.Page, req.PerPage))
	if err != nil {
		return nil, err
	}
	out := make([]User, len(list))
	for i, u := range list {
		out[i] = toUser(u)
	}
	return &ListUsersResponse{Users: out}, nil
}

func one(e either.Either[error, *domain.User]) (*User, error) {
	u, err := either.Unwrap(e)
	if err != nil {
		return nil, err
	}
	out := toUser(u)
	return &out, nil
}

func toUser(u *domain.User) User {
	return User{
		ID:        u.ID().String(),
		Name:      u.Name.String(),
		Email:     u.Email.String(),
		Locale:    u.Locale.String(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
