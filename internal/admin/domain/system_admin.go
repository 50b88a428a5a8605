// Package domain defines the SystemAdmin aggregate, the single operator account of the platform.
package domain

import (
	"time"

	"identity-platform/backend/internal/platform/entity"
	userdomain "identity-platform/backend/internal/user/domain"
)

// SystemAdmin is the platform operator. Its credentials live in the identity context under the same id.
type SystemAdmin struct {
	id        entity.ID
	Name      userdomain.Name
	Email     userdomain.EmailAddress
	CreatedAt time.Time
}

// Props carries the state of a SystemAdmin.
type Props struct {
	Name      userdomain.Name
	Email     userdomain.EmailAddress
	CreatedAt time.Time
}

// New creates a system admin with a fresh id.
func New(p Props, now time.Time) *SystemAdmin {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	return Restore(entity.NewID(), p)
}

// Restore rebuilds a system admin loaded from storage.
func Restore(id entity.ID, p Props) *SystemAdmin {
	return &SystemAdmin{id: id, Name: p.Name, Email: p.Email, CreatedAt: p.CreatedAt}
}

func (a *SystemAdmin) ID() entity.ID { return a.id }
