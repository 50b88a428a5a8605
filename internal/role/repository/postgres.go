package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"identity-platform/backend/internal/apperr"
	"identity-platform/backend/internal/db"
	permission "identity-platform/backend/internal/permission/domain"
	"identity-platform/backend/internal/platform/entity"
	"identity-platform/backend/internal/role/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a role repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByName returns the role for name with its permissions and members, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	var (
		id        string
		createdAt time.Time
	)
	err := db.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, created_at FROM roles WHERE name = $1`, name,
	).Scan(&id, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	roleName, err := domain.ParseName(name)
	if err != nil {
		return nil, err
	}
	perms, err := r.listPermissions(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := r.listMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	roleID, err := entity.ParseID(id)
	if err != nil {
		return nil, err
	}
	return domain.Restore(roleID, domain.Props{
		Name:        roleName,
		Permissions: perms,
		Members:     members,
		CreatedAt:   createdAt,
	}), nil
}

func (r *PostgresRepository) listPermissions(ctx context.Context, roleID string) ([]permission.Name, error) {
	rows, err := db.Conn(ctx, r.db).QueryContext(ctx,
		`SELECT permission FROM role_permissions WHERE role_id = $1 ORDER BY position`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []permission.Name
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		n, err := permission.ParseName(s)
		if err != nil {
			return nil, fmt.Errorf("role %s: %w", roleID, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) listMembers(ctx context.Context, roleID string) ([]entity.ID, error) {
	rows, err := db.Conn(ctx, r.db).QueryContext(ctx,
		`SELECT principal_id FROM role_members WHERE role_id = $1 ORDER BY position`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entity.ID
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		id, err := entity.ParseID(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// GetPermissionsByName returns the permissions granted to the role name without loading its members,
// or nil if the role does not exist.
func (r *PostgresRepository) GetPermissionsByName(ctx context.Context, name string) (*permission.List, error) {
	var id string
	err := db.Conn(ctx, r.db).QueryRowContext(ctx, `SELECT id FROM roles WHERE name = $1`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	perms, err := r.listPermissions(ctx, id)
	if err != nil {
		return nil, err
	}
	return permission.NewList(perms...), nil
}

// AddMember adds principal to the members of the role name. Adding an existing member is a no-op.
func (r *PostgresRepository) AddMember(ctx context.Context, name string, principal entity.ID) error {
	var id string
	err := db.Conn(ctx, r.db).QueryRowContext(ctx, `SELECT id FROM roles WHERE name = $1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ResourceNotFound("role " + name)
	}
	if err != nil {
		return err
	}
	_, err = db.Conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO role_members (role_id, principal_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		id, principal.String(),
	)
	return err
}

// Save upserts the role row and applies the added/removed permissions and members in one transaction.
func (r *PostgresRepository) Save(ctx context.Context, role *domain.Role) error {
	return db.NewTransactor(r.db).WithinTx(ctx, func(ctx context.Context) error {
		return r.save(ctx, db.Conn(ctx, r.db), role)
	})
}

func (r *PostgresRepository) save(ctx context.Context, tx db.Querier, role *domain.Role) error {
	roleID := role.ID().String()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO roles (id, name, created_at) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
		roleID, role.Name.String(), role.CreatedAt,
	); err != nil {
		return err
	}
	for _, p := range role.Permissions.NewItems() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO role_permissions (role_id, permission) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			roleID, p.String(),
		); err != nil {
			return err
		}
	}
	for _, p := range role.Permissions.RemovedItems() {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM role_permissions WHERE role_id = $1 AND permission = $2`,
			roleID, p.String(),
		); err != nil {
			return err
		}
	}
	for _, m := range role.Members.NewItems() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO role_members (role_id, principal_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			roleID, m.String(),
		); err != nil {
			return err
		}
	}
	for _, m := range role.Members.RemovedItems() {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM role_members WHERE role_id = $1 AND principal_id = $2`,
			roleID, m.String(),
		); err != nil {
			return err
		}
	}
	return nil
}
