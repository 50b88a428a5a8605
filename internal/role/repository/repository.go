package repository

import (
	"context"

	permission "identity-platform/backend/internal/permission/domain"
	"identity-platform/backend/internal/platform/entity"
	"identity-platform/backend/internal/role/domain"
)

// Repository defines persistence for roles.
type Repository interface {
	// GetByName returns the role with the given name, or nil if not found.
	GetByName(ctx context.Context, name string) (*domain.Role, error)
	// GetPermissionsByName returns only the permissions of the named role, or nil if not found.
	GetPermissionsByName(ctx context.Context, name string) (*permission.List, error)
	// AddMember adds principal to the named role's members.
	AddMember(ctx context.Context, name string, principal entity.ID) error
	// Save creates the role if new and persists the permission and member changes tracked since load.
	Save(ctx context.Context, r *domain.Role) error
}
