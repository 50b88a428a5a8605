package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"identity-platform/backend/internal/admin/domain"
	"identity-platform/backend/internal/apperr"
	"identity-platform/backend/internal/db"
	"identity-platform/backend/internal/platform/entity"
	userdomain "identity-platform/backend/internal/user/domain"
)

const (
	uniqueViolation    = "23505"
	singletonIndexName = "system_admins_singleton"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a system admin repository backed by db.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

func (r *PostgresRepository) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.db).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM system_admins)`).Scan(&exists)
	return exists, err
}

// GetByID returns the system admin for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.SystemAdmin, error) {
	var (
		rawID, name, email string
		createdAt          time.Time
	)
	err := db.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, name, email, created_at FROM system_admins WHERE id = $1`, id,
	).Scan(&rawID, &name, &email, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	adminID, err := entity.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	n, err := userdomain.ParseName(name)
	if err != nil {
		return nil, err
	}
	e, err := userdomain.ParseEmail(email)
	if err != nil {
		return nil, err
	}
	return domain.Restore(adminID, domain.Props{Name: n, Email: e, CreatedAt: createdAt}), nil
}

// Create inserts a. The singleton index turns a concurrent second insert into ErrSystemAdminAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.SystemAdmin) error {
	_, err := db.Conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO system_admins (id, name, email, created_at) VALUES ($1, $2, $3, $4)`,
		a.ID().String(), a.Name.String(), a.Email.String(), a.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == singletonIndexName {
		return apperr.ErrSystemAdminAlreadyExists
	}
	return err
}
