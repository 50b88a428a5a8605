package repository

import (
	"context"
	"database/sql"

	"identity-platform/backend/internal/audit/domain"
)

const auditColumns = `id, principal_id, action, resource, ip, metadata, created_at`

// PostgresRepository implements Repository using the audit_logs table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log. The entry must have its id assigned.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	var principal sql.NullString
	if a.PrincipalID != "" {
		principal = sql.NullString{String: a.PrincipalID, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (`+auditColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, principal, a.Action, a.Resource, a.IP, a.Metadata, a.CreatedAt,
	)
	return err
}
