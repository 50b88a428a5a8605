// Package domain defines the Role aggregate: a named set of permissions and the principals holding it.
package domain

import (
	"regexp"
	"time"

	"identity-platform/backend/internal/apperr"
	permission "identity-platform/backend/internal/permission/domain"
	"identity-platform/backend/internal/platform/entity"
)

// Seeded role names.
const (
	SystemAdmin = "system_admin"
	Admin       = "admin"
	Member      = "member"
)

var roleNameRE = regexp.MustCompile(`^[a-z][a-z0-9_]{1,49}$`)

// Name is a validated role name.
type Name struct {
	value string
}

// ParseName validates s as a lowercase role name of 2 to 50 characters.
func ParseName(s string) (Name, error) {
	if !roleNameRE.MatchString(s) {
		return Name{}, apperr.InvalidRoleName(s)
	}
	return Name{value: s}, nil
}

// MustParseName is ParseName for constants.
func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

func (n Name) String() string        { return n.value }
func (n Name) Equal(other Name) bool { return n.value == other.value }
func (n Name) IsZero() bool          { return n.value == "" }

// Role groups permissions granted to its members.
type Role struct {
	id          entity.ID
	Name        Name
	Permissions *permission.List
	Members     entity.IDList
	CreatedAt   time.Time
}

// Props carries the persisted state of a Role.
type Props struct {
	Name        Name
	Permissions []permission.Name
	Members     []entity.ID
	CreatedAt   time.Time
}

// New creates a role with a fresh id.
func New(p Props) *Role {
	return Restore(entity.NewID(), p)
}

// Restore rebuilds a role loaded from storage; the given permissions and members form the
// baseline for change tracking.
func Restore(id entity.ID, p Props) *Role {
	return &Role{
		id:          id,
		Name:        p.Name,
		Permissions: permission.NewList(p.Permissions...),
		Members:     entity.NewIDList(p.Members...),
		CreatedAt:   p.CreatedAt,
	}
}

func (r *Role) ID() entity.ID { return r.id }

func (r *Role) Grant(names ...permission.Name) {
	for _, n := range names {
		r.Permissions.Add(n)
	}
}

func (r *Role) Revoke(names ...permission.Name) {
	for _, n := range names {
		r.Permissions.Remove(n)
	}
}

func (r *Role) AddMember(id entity.ID)    { r.Members.Add(id) }
func (r *Role) RemoveMember(id entity.ID) { r.Members.Remove(id) }
