package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"identity-platform/backend/internal/db"
	"identity-platform/backend/internal/platform/entity"
	"identity-platform/backend/internal/platform/pagination"
	"identity-platform/backend/internal/user/domain"
)

const userColumns = `id, name, email, locale, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail returns the user with the given email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	u, err := scanUser(db.Conn(ctx, r.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// Create persists the user. The user must have its id assigned.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := db.Conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID().String(), u.Name.String(), u.Email.String(), u.Locale.String(), u.CreatedAt, u.UpdatedAt,
	)
	return err
}

// Update writes the mutable profile fields of an existing user.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	_, err := db.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE users SET name = $2, locale = $3, updated_at = $4 WHERE id = $1`,
		u.ID().String(), u.Name.String(), u.Locale.String(), u.UpdatedAt,
	)
	return err
}

func (r *PostgresRepository) List(ctx context.Context, page pagination.Params) ([]*domain.User, error) {
	rows, err := db.Conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		page.Limit(), page.Offset(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		id, name, email, locale string
		createdAt, updatedAt    time.Time
	)
	if err := row.Scan(&id, &name, &email, &locale, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	uid, err := entity.ParseID(id)
	if err != nil {
		return nil, err
	}
	n, err := domain.ParseName(name)
	if err != nil {
		return nil, err
	}
	e, err := domain.ParseEmail(email)
	if err != nil {
		return nil, err
	}
	l, err := domain.ParseLocale(locale)
	if err != nil {
		return nil, err
	}
	return domain.Restore(uid, domain.Props{
		Name:      n,
		Email:     e,
		Locale:    l,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	})
}
