package repository

import (
	"context"

	"identity-platform/backend/internal/identity/domain"
)

// Repository defines persistence for principal credentials. Lookups return (nil, nil) when absent.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*domain.UserAuth, error)
	FindByID(ctx context.Context, id string) (*domain.UserAuth, error)
	// Save inserts the credentials or updates hash, role and active flag of an existing row.
	Save(ctx context.Context, a *domain.UserAuth) error
}
