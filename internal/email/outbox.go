package email

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"identity-platform/backend/internal/email/domain"
	"identity-platform/backend/internal/platform/either"
)

type outboxEntry struct {
	email     domain.Email
	expiresAt time.Time
}

// Outbox is an in-memory Sender for development: it keeps each recipient's recent emails for ttl
// so they can be inspected instead of delivered. Not used in production.
type Outbox struct {
	mu    sync.RWMutex
	m     map[string][]outboxEntry
	ttl   time.Duration
	clock clockwork.Clock
}

// NewOutbox returns an empty outbox retaining messages for ttl.
func NewOutbox(ttl time.Duration, clock clockwork.Clock) *Outbox {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Outbox{m: make(map[string][]outboxEntry), ttl: ttl, clock: clock}
}

// Send stores e under its recipient.
func (o *Outbox) Send(ctx context.Context, e domain.Email) either.Either[error, struct{}] {
	o.mu.Lock()
	defer o.mu.Unlock()
	to := e.To.String()
	o.m[to] = append(o.m[to], outboxEntry{email: e, expiresAt: o.clock.Now().Add(o.ttl)})
	return either.Right[error](struct{}{})
}

// Messages returns the unexpired emails sent to addr, oldest first, and drops expired ones.
func (o *Outbox) Messages(addr string) []domain.Email {
	now := o.clock.Now()
	o.mu.Lock()
	defer o.mu.Unlock()
	entries := o.m[addr]
	kept := entries[:0]
	var out []domain.Email
	for _, e := range entries {
		if e.expiresAt.After(now) {
			kept = append(kept, e)
			out = append(out, e.email)
		}
	}
	if len(kept) == 0 {
		delete(o.m, addr)
	} else {
		o.m[addr] = kept
	}
	return out
}

// Latest returns the most recent unexpired email to addr.
func (o *Outbox) Latest(addr string) (domain.Email, bool) {
	msgs := o.Messages(addr)
	if len(msgs) == 0 {
		return domain.Email{}, false
	}
	return msgs[len(msgs)-1], true
}
