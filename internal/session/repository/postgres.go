package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"identity-platform/backend/internal/platform/entity"
	"identity-platform/backend/internal/platform/pagination"
	"identity-platform/backend/internal/security"
	"identity-platform/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Save inserts the session, or sets revoked_at on the stored row if it is still unrevoked.
func (r *PostgresRepository) Save(ctx context.Context, s *domain.Session) error {
	p := s.Props()
	var revokedAt sql.NullTime
	if p.RevokedAt != nil {
		revokedAt = sql.NullTime{Time: *p.RevokedAt, Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, recipient_id, token_hash, created_at, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET revoked_at = EXCLUDED.revoked_at
		WHERE sessions.revoked_at IS NULL`,
		s.ID().String(), p.RecipientID.String(), security.HashToken(p.AccessToken.String()),
		p.CreatedAt, p.ExpiresAt, revokedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleSession
	}
	return nil
}

// FindByAccessToken returns the session for token, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) FindByAccessToken(ctx context.Context, token domain.AccessToken) (*domain.Session, error) {
	var (
		id, recipientID      string
		createdAt, expiresAt time.Time
		revokedAt            sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, recipient_id, created_at, expires_at, revoked_at FROM sessions WHERE token_hash = $1`,
		security.HashToken(token.String()),
	).Scan(&id, &recipientID, &createdAt, &expiresAt, &revokedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	sid, err := entity.ParseID(id)
	if err != nil {
		return nil, err
	}
	rid, err := entity.ParseID(recipientID)
	if err != nil {
		return nil, err
	}
	p := domain.Props{
		RecipientID: rid,
		AccessToken: token,
		CreatedAt:   createdAt.UTC(),
		ExpiresAt:   expiresAt.UTC(),
	}
	if revokedAt.Valid {
		t := revokedAt.Time.UTC()
		p.RevokedAt = &t
	}
	return domain.Restore(sid, p)
}

func (r *PostgresRepository) FindActiveByRecipientAndToken(ctx context.Context, recipientID entity.ID, token domain.AccessToken, now time.Time) (*domain.Session, error) {
	s, err := r.FindByAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return activeFor(s, recipientID, now), nil
}

func (r *PostgresRepository) ListActiveByRecipient(ctx context.Context, recipientID entity.ID, now time.Time, page pagination.Params) ([]domain.Summary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, expires_at FROM sessions
		WHERE recipient_id = $1 AND revoked_at IS NULL AND expires_at > $2
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`,
		recipientID.String(), now, page.Limit(), page.Offset(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Summary
	for rows.Next() {
		var (
			id                   string
			createdAt, expiresAt time.Time
		)
		if err := rows.Scan(&id, &createdAt, &expiresAt); err != nil {
			return nil, err
		}
		sid, err := entity.ParseID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Summary{ID: sid, RecipientID: recipientID, CreatedAt: createdAt.UTC(), ExpiresAt: expiresAt.UTC()})
	}
	return out, rows.Err()
}
