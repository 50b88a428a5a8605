package repository

import (
	"context"

	"identity-platform/backend/internal/admin/domain"
)

// Repository defines persistence for the system admin.
type Repository interface {
	// Exists reports whether a system admin has been created.
	Exists(ctx context.Context) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.SystemAdmin, error)
	// Create stores a. It returns apperr.ErrSystemAdminAlreadyExists when one is already stored.
	Create(ctx context.Context, a *domain.SystemAdmin) error
}
