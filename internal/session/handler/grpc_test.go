package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"identity-platform/backend/internal/apperr"
	"identity-platform/backend/internal/platform/either"
	"identity-platform/backend/internal/platform/entity"
	"identity-platform/backend/internal/server/interceptors"
	"identity-platform/backend/internal/session/domain"
)

type mockSessions struct {
	revoked map[string]string
}

func (m *mockSessions) RevokeSession(ctx context.Context, recipientID entity.ID, rawToken string) either.Either[error, struct{}] {
	if _, done := m.revoked[rawToken]; done {
		return either.Left[error, struct{}](apperr.ResourceNotFound("session"))
	}
	m.revoked[rawToken] = recipientID.String()
	return either.Right[error](struct{}{})
}

func (m *mockSessions) ListSessions(ctx context.Context, recipientID entity.ID, page, perPage int) either.Either[error, []domain.Summary] {
	created := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return either.Right[error]([]domain.Summary{{
		ID:          entity.MustParseID("s-1"),
		RecipientID: recipientID,
		CreatedAt:   created,
		ExpiresAt:   created.Add(time.Hour),
	}})
}

func callerCtx() context.Context {
	return interceptors.WithIdentity(context.Background(), "user-1", "member", "s-1", "current-token")
}

func TestListSessions(t *testing.T) {
	srv := NewServer(&mockSessions{revoked: map[string]string{}})
	if _, err := srv.ListSessions(context.Background(), &ListSessionsRequest{}); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("anonymous: code = %v", status.Code(err))
	}
	resp, err := srv.ListSessions(callerCtx(), &ListSessionsRequest{Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(resp.Sessions) != 1 || resp.Sessions[0].ID != "s-1" {
		t.Errorf("sessions = %+v", resp.Sessions)
	}
}

func TestRevokeSession(t *testing.T) {
	m := &mockSessions{revoked: map[string]string{}}
	srv := NewServer(m)

	if _, err := srv.RevokeSession(callerCtx(), &RevokeSessionRequest{AccessToken: "other-device"}); err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}
	if m.revoked["other-device"] != "user-1" {
		t.Errorf("revoked = %v", m.revoked)
	}

	if _, err := srv.RevokeSession(callerCtx(), &RevokeSessionRequest{}); err != nil {
		t.Fatalf("RevokeSession current: %v", err)
	}
	if _, ok := m.revoked["current-token"]; !ok {
		t.Error("empty token should revoke the current session")
	}

	_, err := srv.RevokeSession(callerCtx(), &RevokeSessionRequest{AccessToken: "other-device"})
	if !errors.Is(err, apperr.ErrResourceNotFound) {
		t.Errorf("second revoke err = %v, want ErrResourceNotFound", err)
	}
}
