package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"identity-platform/backend/internal/audit/domain"
)

// mockAuditRepo implements audit repository interface for tests.
type mockAuditRepo struct {
	entries   []*domain.AuditLog
	createErr error
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func TestLogger_LogEvent_Success(t *testing.T) {
	repo := &mockAuditRepo{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ipExtractor := func(ctx context.Context) string {
		return "192.168.1.1"
	}
	logger := NewLogger(repo, ipExtractor, clockwork.NewFakeClockAt(now), nil)

	logger.LogEvent(context.Background(), "user-1", domain.ActionLoginSuccess, "session", "alice@example.com")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.PrincipalID != "user-1" {
		t.Errorf("principal_id = %q, want %q", entry.PrincipalID, "user-1")
	}
	if entry.Action != domain.ActionLoginSuccess {
		t.Errorf("action = %q, want %q", entry.Action, domain.ActionLoginSuccess)
	}
	if entry.Resource != "session" {
		t.Errorf("resource = %q, want %q", entry.Resource, "session")
	}
	if entry.IP != "192.168.1.1" {
		t.Errorf("ip = %q, want %q", entry.IP, "192.168.1.1")
	}
	if entry.Metadata != "alice@example.com" {
		t.Errorf("metadata = %q, want %q", entry.Metadata, "alice@example.com")
	}
	if entry.ID == "" {
		t.Error("entry ID should be set")
	}
	if !entry.CreatedAt.Equal(now) {
		t.Errorf("created_at = %v, want %v", entry.CreatedAt, now)
	}
}

func TestLogger_LogEvent_NilIPExtractor(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, nil, nil, nil)

	logger.LogEvent(context.Background(), "", domain.ActionLoginFailure, "session", "")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	if repo.entries[0].IP != "unknown" {
		t.Errorf("ip = %q, want %q", repo.entries[0].IP, "unknown")
	}
	if repo.entries[0].PrincipalID != "" {
		t.Errorf("principal_id = %q, want empty", repo.entries[0].PrincipalID)
	}
}

func TestLogger_LogEvent_RepositoryError(t *testing.T) {
	repo := &mockAuditRepo{createErr: errors.New("database error")}
	log, hook := test.NewNullLogger()
	logger := NewLogger(repo, nil, nil, log)

	logger.LogEvent(context.Background(), "user-1", domain.ActionLogout, "session", "")

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a warning to be logged")
	}
	if entry.Level != logrus.WarnLevel {
		t.Errorf("level = %v, want warn", entry.Level)
	}
	if entry.Data["action"] != domain.ActionLogout {
		t.Errorf("action field = %v, want %q", entry.Data["action"], domain.ActionLogout)
	}
}

func TestLogger_LogEvent_NilRepo(t *testing.T) {
	logger := NewLogger(nil, nil, nil, nil)

	// no-op when repo is nil
	logger.LogEvent(context.Background(), "user-1", "action", "resource", "")
}
