package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"

	identityservice "identity-platform/backend/internal/identity/service"
	"identity-platform/backend/internal/platform/either"
	"identity-platform/backend/internal/platform/entity"
	"identity-platform/backend/internal/server/interceptors"
	"identity-platform/backend/internal/server/rpc"
)

// ServiceName is the gRPC service implemented by AuthServer.
const ServiceName = "identity.auth.v1.AuthService"

// AuthUseCases is the subset of the identity service exposed over gRPC.
type AuthUseCases interface {
	Login(ctx context.Context, email, password string) either.Either[error, identityservice.LoginResult]
	Logout(ctx context.Context, recipientID entity.ID, accessToken string) either.Either[error, struct{}]
	RequestPasswordReset(ctx context.Context, email string) either.Either[error, struct{}]
	ResetPassword(ctx context.Context, token, newPassword string) either.Either[error, struct{}]
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	RecipientID string    `json:"recipient_id"`
	SessionID   string    `json:"session_id"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// AuthServer implements AuthService for login, logout and password reset.
type AuthServer struct {
	auth AuthUseCases
}

// NewAuthServer returns a new Auth gRPC server.
func NewAuthServer(auth AuthUseCases) *AuthServer {
	return &AuthServer{auth: auth}
}

// Register adds AuthService to s.
func (s *AuthServer) Register(r grpc.ServiceRegistrar) {
	rpc.Register(r, ServiceName,
		rpc.Unary("Login", s.Login),
		rpc.Unary("Logout", s.Logout),
		rpc.Unary("RequestPasswordReset", s.RequestPasswordReset),
		rpc.Unary("ResetPassword", s.ResetPassword),
	)
}

// Login authenticates email/password and returns a new session's access token.
func (s *AuthServer) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	res, err := either.Unwrap(s.auth.Login(ctx, req.Email, req.Password))
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		AccessToken: res.AccessToken,
		ExpiresAt:   res.ExpiresAt,
		RecipientID: res.RecipientID.String(),
		SessionID:   res.SessionID.String(),
	}, nil
}

// Logout revokes the session of the presented access token.
func (s *AuthServer) Logout(ctx context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	caller, err := interceptors.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := either.Unwrap(s.auth.Logout(ctx, caller.PrincipalID, caller.AccessToken)); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

// RequestPasswordReset always answers the same way for known and unknown emails.
func (s *AuthServer) RequestPasswordReset(ctx context.Context, req *PasswordResetRequest) (*rpc.Empty, error) {
	if _, err := either.Unwrap(s.auth.RequestPasswordReset(ctx, req.Email)); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

func (s *AuthServer) ResetPassword(ctx context.Context, req *ResetPasswordRequest) (*rpc.Empty, error) {
	if _, err := either.Unwrap(s.auth.ResetPassword(ctx, req.Token, req.NewPassword)); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}
