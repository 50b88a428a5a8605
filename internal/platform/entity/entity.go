// Package entity provides the identity kernel shared by every aggregate: an opaque unique
// identifier, identity-based equality and a watched list of identifiers.
package entity

import (
	"strings"

	"github.com/google/uuid"

	"identity-platform/backend/internal/apperr"
	"identity-platform/backend/internal/platform/watchedlist"
)

// ID is an opaque, value-comparable entity identifier. The zero ID is unset.
type ID struct {
	value string
}

// NewID returns a fresh random identifier.
func NewID() ID {
	return ID{value: uuid.New().String()}
}

// ParseID wraps an existing identifier, e.g. one loaded from storage. s must not be blank.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ID{}, apperr.ErrInvalidID
	}
	return ID{value: s}, nil
}

// MustParseID is ParseID for trusted constants; it panics on a blank string.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) String() string { return id.value }

// IsZero reports whether the identifier is unset.
func (id ID) IsZero() bool { return id.value == "" }

// Equal reports whether both identifiers hold the same value.
func (id ID) Equal(other ID) bool { return id.value == other.value }

// Identifiable is implemented by every aggregate.
type Identifiable interface {
	ID() ID
}

// Equal compares two entities by identity, never by their attributes.
func Equal(a, b Identifiable) bool {
	if a == nil || b == nil {
		return false
	}
	return a.ID().Equal(b.ID())
}

// IDList is an ordered, duplicate-free list of identifiers that tracks additions and removals.
type IDList struct {
	*watchedlist.List[ID]
}

// NewIDList returns an IDList whose base is ids.
func NewIDList(ids ...ID) IDList {
	return IDList{List: watchedlist.New(func(a, b ID) bool { return a.Equal(b) }, ids...)}
}
