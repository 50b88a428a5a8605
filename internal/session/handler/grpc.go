package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"identity-platform/backend/internal/platform/either"
	"identity-platform/backend/internal/platform/entity"
	"identity-platform/backend/internal/server/interceptors"
	"identity-platform/backend/internal/server/rpc"
	"identity-platform/backend/internal/session/domain"
)

// ServiceName is the gRPC service implemented by Server.
const ServiceName = "identity.session.v1.SessionService"

// UseCases is the session service as seen by the transport.
type UseCases interface {
	RevokeSession(ctx context.Context, recipientID entity.ID, rawToken string) either.Either[error, struct{}]
	ListSessions(ctx context.Context, recipientID entity.ID, page, perPage int) either.Either[error, []domain.Summary]
}

type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ListSessionsRequest struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

type ListSessionsResponse struct {
	Sessions []Session `json:"sessions"`
}

// RevokeSessionRequest names one of the caller's sessions by its access token.
type RevokeSessionRequest struct {
	AccessToken string `json:"access_token"`
}

// Server implements SessionService. Callers only see and revoke their own sessions.
type Server struct {
	sessions UseCases
}

// NewServer returns a new Session gRPC server.
func NewServer(sessions UseCases) *Server {
	return &Server{sessions: sessions}
}

// Register adds SessionService to s.
func (s *Server) Register(r grpc.ServiceRegistrar) {
	rpc.Register(r, ServiceName,
		rpc.Unary("ListSessions", s.ListSessions),
		rpc.Unary("RevokeSession", s.RevokeSession),
	)
}

// ListSessions returns one page of the caller's active sessions, newest first.
func (s *Server) ListSessions(ctx context.Context, req *ListSessionsRequest) (*ListSessionsResponse, error) {
	caller, err := interceptors.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}
	list, err := either.Unwrap(s.sessions.ListSessions(ctx, caller.PrincipalID, req.Page, req.PerPage))
	if err != nil {
		return nil, err
	}
	out := make([]Session, len(list))
	for i, sum := range list {
		out[i] = Session{ID: sum.ID.String(), CreatedAt: sum.CreatedAt, ExpiresAt: sum.ExpiresAt}
	}
	return &ListSessionsResponse{Sessions: out}, nil
}

// RevokeSession revokes one of the caller's sessions. An empty token revokes the current one.
func (s *Server) RevokeSession(ctx context.Context, req *RevokeSessionRequest) (*rpc.Empty, error) {
	caller, err := interceptors.RequireCaller(ctx)
	if err != nil {
		return nil, err
	}
	token := req.AccessToken
	if token == "" {
		token = caller.AccessToken
	}
	if _, err := either.Unwrap(s.sessions.RevokeSession(ctx, caller.PrincipalID, token)); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}
