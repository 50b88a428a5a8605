// Package domain defines the User aggregate and its value objects.
package domain

import (
	"fmt"
	"time"

	"identity-platform/backend/internal/apperr"
	"identity-platform/backend/internal/platform/entity"
)

// User is an end user of the platform. Credentials live in the identity context.
type User struct {
	id        entity.ID
	Name      Name
	Email     EmailAddress
	Locale    Locale
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Props carries the state of a User.
type Props struct {
	Name      Name
	Email     EmailAddress
	Locale    Locale
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a user with a fresh id. Zero timestamps default to now; a zero locale defaults to DefaultLocale.
func New(p Props, now time.Time) (*User, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	return Restore(entity.NewID(), p)
}

// Restore rebuilds a user loaded from storage.
func Restore(id entity.ID, p Props) (*User, error) {
	if p.Locale == (Locale{}) {
		p.Locale = DefaultLocale
	}
	if p.UpdatedAt.Before(p.CreatedAt) {
		return nil, invalidUpdatedAt(p.CreatedAt, p.UpdatedAt)
	}
	return &User{
		id:        id,
		Name:      p.Name,
		Email:     p.Email,
		Locale:    p.Locale,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

func (u *User) ID() entity.ID { return u.id }

// Rename changes the display name.
func (u *User) Rename(name Name, at time.Time) error {
	if err := u.touch(at); err != nil {
		return err
	}
	u.Name = name
	return nil
}

// ChangeLocale changes the preferred locale.
func (u *User) ChangeLocale(l Locale, at time.Time) error {
	if err := u.touch(at); err != nil {
		return err
	}
	u.Locale = l
	return nil
}

func (u *User) touch(at time.Time) error {
	if at.Before(u.CreatedAt) {
		return invalidUpdatedAt(u.CreatedAt, at)
	}
	u.UpdatedAt = at
	return nil
}

func invalidUpdatedAt(created, updated time.Time) error {
	return apperr.Wrap(apperr.ErrInvalidUpdatedAt,
		fmt.Sprintf("updated at %s is before created at %s", updated.Format(time.RFC3339), created.Format(time.RFC3339)), nil)
}
