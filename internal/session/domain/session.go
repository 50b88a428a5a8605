// Package domain defines the Session aggregate: a bearer access token bound to a recipient
// with a fixed expiry and an optional revocation.
package domain

import (
	"errors"
	"fmt"
	"time"

	"identity-platform/backend/internal/apperr"
	"identity-platform/backend/internal/platform/entity"
)

// ErrSessionNotActive is returned by Revoke when the session is already revoked or expired.
var ErrSessionNotActive = errors.New("session is not active")

// Status is the lifecycle state of a session at a given instant. Revoked and Expired are terminal.
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
	StatusExpired Status = "expired"
)

// Props carries the state of a Session.
type Props struct {
	RecipientID entity.ID
	AccessToken AccessToken
	CreatedAt   time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time // nil when not revoked
}

// Session represents an issued access token. AccessToken and CreatedAt never change after creation.
type Session struct {
	id          entity.ID
	recipientID entity.ID
	accessToken AccessToken
	createdAt   time.Time
	expiresAt   time.Time
	revokedAt   *time.Time
}

// New creates a session with a fresh id. A zero CreatedAt defaults to now.
func New(p Props, now time.Time) (*Session, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	return Restore(entity.NewID(), p)
}

// Restore rebuilds a session from stored state, enforcing the same date rules as New.
func Restore(id entity.ID, p Props) (*Session, error) {
	if id.IsZero() || p.RecipientID.IsZero() {
		return nil, apperr.ErrInvalidID
	}
	if p.AccessToken.IsZero() {
		return nil, apperr.ErrInvalidAccessToken
	}
	if p.ExpiresAt.Before(p.CreatedAt) {
		return nil, apperr.Wrap(apperr.ErrInvalidSessionDateExpired,
			fmt.Sprintf("session expires at %s before created at %s", stamp(p.ExpiresAt), stamp(p.CreatedAt)), nil)
	}
	if p.RevokedAt != nil && p.RevokedAt.Before(p.CreatedAt) {
		return nil, revokedBeforeCreated(*p.RevokedAt, p.CreatedAt)
	}
	return &Session{
		id:          id,
		recipientID: p.RecipientID,
		accessToken: p.AccessToken,
		createdAt:   p.CreatedAt,
		expiresAt:   p.ExpiresAt,
		revokedAt:   cloneTime(p.RevokedAt),
	}, nil
}

func (s *Session) ID() entity.ID            { return s.id }
func (s *Session) RecipientID() entity.ID   { return s.recipientID }
func (s *Session) AccessToken() AccessToken { return s.accessToken }
func (s *Session) CreatedAt() time.Time     { return s.createdAt }
func (s *Session) ExpiresAt() time.Time     { return s.expiresAt }
func (s *Session) RevokedAt() *time.Time    { return cloneTime(s.revokedAt) }

// IsActive reports whether the session is neither revoked nor expired at now.
func (s *Session) IsActive(now time.Time) bool {
	return s.revokedAt == nil && now.Before(s.expiresAt)
}

func (s *Session) Status(now time.Time) Status {
	switch {
	case s.revokedAt != nil:
		return StatusRevoked
	case !now.Before(s.expiresAt):
		return StatusExpired
	default:
		return StatusActive
	}
}

// Revoke ends an active session at the given instant.
func (s *Session) Revoke(at time.Time) error {
	if at.Before(s.createdAt) {
		return revokedBeforeCreated(at, s.createdAt)
	}
	if !s.IsActive(at) {
		return ErrSessionNotActive
	}
	s.revokedAt = &at
	return nil
}

// Props returns a copy of the session state; Restore(s.ID(), s.Props()) yields an equal session.
func (s *Session) Props() Props {
	return Props{
		RecipientID: s.recipientID,
		AccessToken: s.accessToken,
		CreatedAt:   s.createdAt,
		ExpiresAt:   s.expiresAt,
		RevokedAt:   cloneTime(s.revokedAt),
	}
}

// Equal compares sessions by identity.
func (s *Session) Equal(other *Session) bool {
	if s == nil || other == nil {
		return false
	}
	return entity.Equal(s, other)
}

// Summary is the listing view of a session; it carries no credential.
type Summary struct {
	ID          entity.ID
	RecipientID entity.ID
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

func revokedBeforeCreated(revoked, created time.Time) error {
	return apperr.Wrap(apperr.ErrInvalidSessionDateRevoked,
		fmt.Sprintf("session revoked at %s before created at %s", stamp(revoked), stamp(created)), nil)
}

func stamp(t time.Time) string { return t.Format(time.RFC3339Nano) }

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
