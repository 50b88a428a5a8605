// Package service implements the session lifecycle use cases: issue, validate, revoke, logout
// and list. Every use case returns an either.Either whose Left carries an *apperr.Error or an
// infrastructure error from a collaborator.
package service

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"identity-platform/backend/internal/apperr"
	"identity-platform/backend/internal/events"
	"identity-platform/backend/internal/platform/either"
	"identity-platform/backend/internal/platform/entity"
	"identity-platform/backend/internal/platform/pagination"
	"identity-platform/backend/internal/security"
	"identity-platform/backend/internal/session/domain"
	"identity-platform/backend/internal/session/repository"
)

// IssuedSession is the result of IssueSession.
type IssuedSession struct {
	SessionID   entity.ID
	AccessToken domain.AccessToken
	ExpiresAt   time.Time
}

// SessionService implements the session use cases.
type SessionService struct {
	repo      repository.Repository
	encrypter security.Encrypter
	clock     clockwork.Clock
	publisher events.Publisher
	log       logrus.FieldLogger
}

// NewSessionService returns a SessionService. publisher may be nil, in which case no events are emitted.
func NewSessionService(repo repository.Repository, encrypter security.Encrypter, clock clockwork.Clock, publisher events.Publisher, log logrus.FieldLogger) *SessionService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &SessionService{repo: repo, encrypter: encrypter, clock: clock, publisher: publisher, log: log}
}

// IssueSession signs payload (plus the recipient as subject) into an access token and stores a
// session for it. A token whose expiry is not after its creation yields a session expired error.
func (s *SessionService) IssueSession(ctx context.Context, recipientID entity.ID, payload security.Payload) either.Either[error, IssuedSession] {
	claims := security.Payload{}
	maps.Copy(claims, payload)
	claims[security.SubjectClaim] = recipientID.String()

	tok, err := s.encrypter.Encrypt(claims)
	if err != nil {
		return either.Left[error, IssuedSession](err)
	}
	accessToken, err := domain.NewAccessToken(tok.AccessToken)
	if err != nil {
		return either.Left[error, IssuedSession](err)
	}
	now := s.clock.Now().UTC()
	sess, err := domain.New(domain.Props{
		RecipientID: recipientID,
		AccessToken: accessToken,
		CreatedAt:   now,
		ExpiresAt:   tok.ExpiresAt,
	}, now)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidSessionDateExpired) {
			return either.Left[error, IssuedSession](apperr.Wrap(apperr.ErrSessionExpired, "issued token is already expired", err))
		}
		return either.Left[error, IssuedSession](err)
	}
	if !sess.IsActive(now) {
		return either.Left[error, IssuedSession](apperr.Wrap(apperr.ErrSessionExpired, "issued token is already expired", nil))
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		return either.Left[error, IssuedSession](err)
	}
	s.emit(events.SessionIssued, sess, now)
	return either.Right[error](IssuedSession{
		SessionID:   sess.ID(),
		AccessToken: accessToken,
		ExpiresAt:   sess.ExpiresAt(),
	})
}

// ValidateSession returns the session for rawToken if it exists and is active.
func (s *SessionService) ValidateSession(ctx context.Context, rawToken string) either.Either[error, *domain.Session] {
	token, err := domain.NewAccessToken(rawToken)
	if err != nil {
		return either.Left[error, *domain.Session](err)
	}
	sess, err := s.repo.FindByAccessToken(ctx, token)
	if err != nil {
		return either.Left[error, *domain.Session](err)
	}
	if sess == nil {
		return either.Left[error, *domain.Session](apperr.ResourceNotFound("session"))
	}
	if !sess.IsActive(s.clock.Now().UTC()) {
		return either.Left[error, *domain.Session](apperr.ErrSessionExpired)
	}
	return either.Right[error](sess)
}

// RevokeSession ends the recipient's active session for rawToken. Revoking a session that is
// unknown, belongs to someone else, or is no longer active fails with resource not found.
func (s *SessionService) RevokeSession(ctx context.Context, recipientID entity.ID, rawToken string) either.Either[error, struct{}] {
	token, err := domain.NewAccessToken(rawToken)
	if err != nil {
		return either.Left[error, struct{}](err)
	}
	now := s.clock.Now().UTC()
	sess, err := s.repo.FindActiveByRecipientAndToken(ctx, recipientID, token, now)
	if err != nil {
		return either.Left[error, struct{}](err)
	}
	if sess == nil {
		return either.Left[error, struct{}](apperr.ResourceNotFound("session"))
	}
	if err := sess.Revoke(now); err != nil {
		if errors.Is(err, domain.ErrSessionNotActive) {
			return either.Left[error, struct{}](apperr.ResourceNotFound("session"))
		}
		return either.Left[error, struct{}](err)
	}
	if err := s.repo.Save(ctx, sess); err != nil {
		if errors.Is(err, repository.ErrStaleSession) {
			return either.Left[error, struct{}](apperr.ResourceNotFound("session"))
		}
		return either.Left[error, struct{}](err)
	}
	s.emit(events.SessionRevoked, sess, now)
	return either.Right[error](struct{}{})
}

// LogoutUser revokes the caller's current session.
func (s *SessionService) LogoutUser(ctx context.Context, recipientID entity.ID, rawToken string) either.Either[error, struct{}] {
	return s.RevokeSession(ctx, recipientID, rawToken)
}

// ListSessions returns one page of the recipient's active sessions, newest first.
func (s *SessionService) ListSessions(ctx context.Context, recipientID entity.ID, page, perPage int) either.Either[error, []domain.Summary] {
	params, err := pagination.New(page, perPage)
	if err != nil {
		return either.Left[error, []domain.Summary](err)
	}
	list, err := s.repo.ListActiveByRecipient(ctx, recipientID, s.clock.Now().UTC(), params)
	return either.FromResult(list, err)
}

func (s *SessionService) emit(t events.Type, sess *domain.Session, at time.Time) {
	events.PublishAsync(s.publisher, s.log, events.Event{
		Type:        t,
		SessionID:   sess.ID().String(),
		RecipientID: sess.RecipientID().String(),
		OccurredAt:  at,
	})
}
