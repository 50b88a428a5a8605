// Package handler implements the dev-only gRPC DevService that reads the email outbox.
package handler

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"identity-platform/backend/internal/email/domain"
	"identity-platform/backend/internal/server/rpc"
)

// ServiceName is the gRPC service implemented by Server.
const ServiceName = "identity.dev.v1.DevService"

const devNote = "DEV MODE ONLY"

// Mailbox is the outbox as seen by DevService.
type Mailbox interface {
	Latest(addr string) (domain.Email, bool)
}

type GetLatestEmailRequest struct {
	Email string `json:"email"`
}

type GetLatestEmailResponse struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Link    string `json:"link,omitempty"`
	Note    string `json:"note"`
}

// Server implements DevService. Only registered when the outbox is enabled and not production.
type Server struct {
	mailbox Mailbox
}

func NewServer(mailbox Mailbox) *Server {
	return &Server{mailbox: mailbox}
}

// Register adds DevService to s.
func (s *Server) Register(r grpc.ServiceRegistrar) {
	rpc.Register(r, ServiceName, rpc.Unary("GetLatestEmail", s.GetLatestEmail))
}

// GetLatestEmail returns the newest unexpired email sent to the given address. Returns NotFound if none.
func (s *Server) GetLatestEmail(ctx context.Context, req *GetLatestEmailRequest) (*GetLatestEmailResponse, error) {
	addr := strings.ToLower(strings.TrimSpace(req.Email))
	if addr == "" {
		return nil, status.Error(codes.InvalidArgument, "email is required")
	}
	e, ok := s.mailbox.Latest(addr)
	if !ok {
		return nil, status.Error(codes.NotFound, "no email for address")
	}
	resp := &GetLatestEmailResponse{
		Kind:    string(e.Kind),
		Subject: e.Subject,
		Body:    e.Body,
		Note:    devNote,
	}
	if e.Link != nil {
		resp.Link = e.Link.String()
	}
	return resp, nil
}
