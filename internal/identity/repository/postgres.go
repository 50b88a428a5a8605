package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"identity-platform/backend/internal/db"
	"identity-platform/backend/internal/identity/domain"
	"identity-platform/backend/internal/platform/entity"
	roledomain "identity-platform/backend/internal/role/domain"
	userdomain "identity-platform/backend/internal/user/domain"
)

const userAuthColumns = `id, email, password_hash, role, is_active, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a credentials repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// FindByEmail returns the credentials registered for email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*domain.UserAuth, error) {
	return r.findOne(ctx, `SELECT `+userAuthColumns+` FROM user_auths WHERE email = $1`, email)
}

// FindByID returns the credentials of the principal id, or nil if not found.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*domain.UserAuth, error) {
	return r.findOne(ctx, `SELECT `+userAuthColumns+` FROM user_auths WHERE id = $1`, id)
}

func (r *PostgresRepository) findOne(ctx context.Context, query, arg string) (*domain.UserAuth, error) {
	var (
		id, email, hash, role string
		active                bool
		createdAt, updatedAt  time.Time
	)
	err := db.Conn(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(&id, &email, &hash, &role, &active, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	pid, err := entity.ParseID(id)
	if err != nil {
		return nil, err
	}
	addr, err := userdomain.ParseEmail(email)
	if err != nil {
		return nil, err
	}
	roleName, err := roledomain.ParseName(role)
	if err != nil {
		return nil, err
	}
	return domain.Restore(pid, domain.Props{
		Email:        addr,
		PasswordHash: hash,
		Role:         roleName,
		IsActive:     active,
		CreatedAt:    createdAt.UTC(),
		UpdatedAt:    updatedAt.UTC(),
	}), nil
}

func (r *PostgresRepository) Save(ctx context.Context, a *domain.UserAuth) error {
	_, err := db.Conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO user_auths (`+userAuthColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at`,
		a.ID().String(), a.Email.String(), a.PasswordHash, a.Role.String(), a.IsActive, a.CreatedAt, a.UpdatedAt,
	)
	return err
}
