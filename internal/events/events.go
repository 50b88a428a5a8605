// Package events publishes session lifecycle events for out-of-band consumers such as the
// sign-in notifier.
package events

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Type names a session lifecycle event.
type Type string

const (
	SessionIssued  Type = "session.issued"
	SessionRevoked Type = "session.revoked"
)

// Event is the JSON payload written to the session events topic.
type Event struct {
	Type        Type      `json:"type"`
	SessionID   string    `json:"session_id"`
	RecipientID string    `json:"recipient_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher emits events. Callers use it best-effort: log and ignore errors.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// publishTimeout bounds a single async publish.
const publishTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after the server stops so in-flight async publishes finish.
const ShutdownDrainDuration = publishTimeout

// PublishAsync runs Publish in a goroutine with its own timeout so request cancellation does not
// abort the write and the caller is not blocked. Failures are logged.
func PublishAsync(p Publisher, log logrus.FieldLogger, e Event) {
	if p == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.Publish(ctx, e); err != nil && log != nil {
			log.WithError(err).WithField("event_type", e.Type).Warn("events: async publish failed")
		}
	}()
}
