// Package email delivers rendered emails. Sender implementations report delivery failures as a
// Left send email error instead of a Go error so use cases can decide whether to fail or continue.
package email

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"identity-platform/backend/internal/email/domain"
	"identity-platform/backend/internal/platform/either"
)

// OutboxTTL is how long the development outbox keeps each message.
const OutboxTTL = time.Hour

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, e domain.Email) either.Either[error, struct{}]
}

// NewSender returns an Outbox when useOutbox is set and an SES sender built from cfg otherwise.
func NewSender(ctx context.Context, useOutbox bool, cfg SESConfig, clock clockwork.Clock, log logrus.FieldLogger) (Sender, error) {
	if useOutbox {
		log.Warn("email: using in-memory outbox, messages are not delivered")
		return NewOutbox(OutboxTTL, clock), nil
	}
	return NewSESSender(ctx, cfg, log)
}
