package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// KafkaPublisher implements Publisher using segmentio/kafka-go. Events are keyed by recipient
// so a recipient's events stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher returns a publisher writing to topic, or nil when brokers or topic are empty.
// Call Close when shutting down.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}}
}

// Publish serializes the event as JSON and writes it to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if p == nil || p.writer == nil {
		return nil
	}
	msg, err := encode(e)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return p.writer.WriteMessages(writeCtx, msg)
}

// Close closes the Kafka writer. Safe to call on a nil publisher.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func encode(e Event) (kafka.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{Key: []byte(e.RecipientID), Value: payload}, nil
}

func decode(m kafka.Message) (Event, error) {
	var e Event
	err := json.Unmarshal(m.Value, &e)
	return e, err
}

// Handler processes one event. A returned error is logged and the message is still committed.
type Handler func(ctx context.Context, e Event) error

// messageReader is the subset of *kafka.Reader used by KafkaConsumer.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer reads session events as part of a consumer group.
type KafkaConsumer struct {
	reader messageReader
	log    logrus.FieldLogger
}

// NewKafkaConsumer returns a consumer of topic in consumer group groupID.
func NewKafkaConsumer(brokers []string, topic, groupID string, log logrus.FieldLogger) (*KafkaConsumer, error) {
	if len(brokers) == 0 || topic == "" || groupID == "" {
		return nil, errors.New("events: brokers, topic and group id are required")
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
	return &KafkaConsumer{reader: r, log: log}, nil
}

// Run fetches and handles events until ctx is done. Malformed messages are skipped.
func (c *KafkaConsumer) Run(ctx context.Context, h Handler) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		e, err := decode(m)
		if err != nil {
			c.log.WithError(err).WithField("offset", m.Offset).Warn("events: skipping malformed message")
		} else if err := h(ctx, e); err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{
				"event_type": e.Type,
				"session_id": e.SessionID,
			}).Error("events: handler failed")
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func (c *KafkaConsumer) Close() error { return c.reader.Close() }
