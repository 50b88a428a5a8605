package repository

import (
	"context"

	"identity-platform/backend/internal/platform/pagination"
	"identity-platform/backend/internal/user/domain"
)

// Repository defines persistence for users. Lookups return (nil, nil) when the user does not exist.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	// List returns one page of users ordered by creation time, oldest first.
	List(ctx context.Context, page pagination.Params) ([]*domain.User, error)
}
