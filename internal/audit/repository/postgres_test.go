package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity-platform/backend/internal/audit/domain"
)

func TestPostgresRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs("log-1", nil, domain.ActionLoginFailure, "session", "10.0.0.1", "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostgresRepository(db)
	err = repo.Create(context.Background(), &domain.AuditLog{
		ID: "log-1", Action: domain.ActionLoginFailure, Resource: "session", IP: "10.0.0.1", CreatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Create_WithPrincipal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs("log-2", "user-1", domain.ActionLogout, "session", "unknown", "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPostgresRepository(db).Create(context.Background(), &domain.AuditLog{
		ID: "log-2", PrincipalID: "user-1", Action: domain.ActionLogout, Resource: "session", IP: "unknown", CreatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
