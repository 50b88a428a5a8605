// Package domain defines UserAuth, the credential record of a principal (a user or a system admin).
package domain

import (
	"time"

	"identity-platform/backend/internal/platform/entity"
	roledomain "identity-platform/backend/internal/role/domain"
	userdomain "identity-platform/backend/internal/user/domain"
)

// UserAuth holds the login credentials and role of a principal. Its id is the principal's id.
type UserAuth struct {
	id           entity.ID
	Email        userdomain.EmailAddress
	PasswordHash string
	Role         roledomain.Name
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Props carries the state of a UserAuth.
type Props struct {
	Email        userdomain.EmailAddress
	PasswordHash string
	Role         roledomain.Name
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// New creates active credentials for the principal identified by principalID.
func New(principalID entity.ID, p Props, now time.Time) *UserAuth {
	p.IsActive = true
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	return Restore(principalID, p)
}

// Restore rebuilds credentials loaded from storage.
func Restore(id entity.ID, p Props) *UserAuth {
	return &UserAuth{
		id:           id,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		Role:         p.Role,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (a *UserAuth) ID() entity.ID { return a.id }

func (a *UserAuth) ChangePassword(hash string, at time.Time) {
	a.PasswordHash = hash
	a.UpdatedAt = at
}

func (a *UserAuth) AssignRole(name roledomain.Name, at time.Time) {
	a.Role = name
	a.UpdatedAt = at
}

// Deactivate blocks future logins; existing sessions are unaffected.
func (a *UserAuth) Deactivate(at time.Time) {
	a.IsActive = false
	a.UpdatedAt = at
}
