package otel

import (
	"context"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"identity-platform/backend/internal/events"
)

const instrumentationName = "identity-platform/sessions"

// Emitter is the part of an OTel logger used to emit records.
type Emitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// EventPublisher publishes session events as OTel log records. It is the events.Publisher used
// when no Kafka brokers are configured, so session activity still reaches the collector.
type EventPublisher struct {
	logger Emitter
}

// NewEventPublisher returns a publisher writing to provider. A nil provider yields events.Nop.
func NewEventPublisher(provider *sdklog.LoggerProvider) events.Publisher {
	if provider == nil {
		return events.Nop{}
	}
	return &EventPublisher{logger: provider.Logger(instrumentationName)}
}

// NewEventPublisherWithLogger returns a publisher writing to logger.
func NewEventPublisherWithLogger(logger Emitter) *EventPublisher {
	return &EventPublisher{logger: logger}
}

// Publish emits e as one log record; it never fails.
func (p *EventPublisher) Publish(ctx context.Context, e events.Event) error {
	rec := otellog.Record{}
	rec.SetTimestamp(e.OccurredAt)
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue(string(e.Type)))
	rec.AddAttributes(otellog.String("event_type", string(e.Type)))
	if e.SessionID != "" {
		rec.AddAttributes(otellog.String("session_id", e.SessionID))
	}
	if e.RecipientID != "" {
		rec.AddAttributes(otellog.String("recipient_id", e.RecipientID))
	}
	p.logger.Emit(ctx, rec)
	return nil
}
