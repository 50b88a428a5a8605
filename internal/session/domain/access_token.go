package domain

import (
	"strings"

	"identity-platform/backend/internal/apperr"
)

// AccessToken is the opaque bearer credential that identifies a session.
type AccessToken struct {
	value string
}

// NewAccessToken trims s and rejects empty tokens.
func NewAccessToken(s string) (AccessToken, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AccessToken{}, apperr.ErrInvalidAccessToken
	}
	return AccessToken{value: s}, nil
}

func (t AccessToken) String() string               { return t.value }
func (t AccessToken) Equal(other AccessToken) bool { return t.value == other.value }
func (t AccessToken) IsZero() bool                 { return t.value == "" }
