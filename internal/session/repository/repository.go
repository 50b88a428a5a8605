package repository

import (
	"context"
	"errors"
	"time"

	"identity-platform/backend/internal/platform/entity"
	"identity-platform/backend/internal/platform/pagination"
	"identity-platform/backend/internal/session/domain"
)

// ErrStaleSession is returned by Save when a revocation lost a race with another revocation
// of the same session, or the session no longer exists.
var ErrStaleSession = errors.New("session was modified concurrently")

// Repository defines persistence for sessions. Sessions are keyed by the digest of their access
// token; the raw token is never stored. Lookups return (nil, nil) when nothing matches.
type Repository interface {
	// Save inserts a new session, or records the revocation of a stored one. Recording a
	// revocation only succeeds while the stored session is still unrevoked.
	Save(ctx context.Context, s *domain.Session) error
	FindByAccessToken(ctx context.Context, token domain.AccessToken) (*domain.Session, error)
	// FindActiveByRecipientAndToken returns the session only if it belongs to recipientID and is active at now.
	FindActiveByRecipientAndToken(ctx context.Context, recipientID entity.ID, token domain.AccessToken, now time.Time) (*domain.Session, error)
	// ListActiveByRecipient returns one page of the recipient's active sessions, newest first.
	ListActiveByRecipient(ctx context.Context, recipientID entity.ID, now time.Time, page pagination.Params) ([]domain.Summary, error)
}

func activeFor(s *domain.Session, recipientID entity.ID, now time.Time) *domain.Session {
	if s == nil || !s.RecipientID().Equal(recipientID) || !s.IsActive(now) {
		return nil
	}
	return s
}
