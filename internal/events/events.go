// Package events publishes result-change notifications to a broker. Delivery
// is best effort: a failed publish is logged and counted, never returned to
// the request that caused it.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/RIKASH04/Resulyhub/common/metrics"
	"github.com/RIKASH04/Resulyhub/internal/config"
)

const (
	TypeSummaryUpdated = "summary.updated"
	TypeStudentDeleted = "student.deleted"
	TypeClassDeleted   = "class.deleted"
)

// Producer sends one JSON-encoded value, keyed for partitioning.
type Producer interface {
	SendMessage(ctx context.Context, key string, value any) error
	Close() error
}

type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

type SummaryUpdated struct {
	StudentID      string  `json:"studentId"`
	RegisterNumber string  `json:"registerNumber"`
	Total          int     `json:"total"`
	MaxTotal       int     `json:"maxTotal"`
	Percentage     float64 `json:"percentage"`
	Grade          string  `json:"grade"`
	Status         string  `json:"status"`
}

type StudentDeleted struct {
	StudentID      string `json:"studentId"`
	RegisterNumber string `json:"registerNumber"`
}

type ClassDeleted struct {
	ClassID string `json:"classId"`
	Name    string `json:"name"`
}

type Publisher struct {
	producer Producer
	broker   string
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewPublisher(producer Producer, broker string, logger *slog.Logger, m *metrics.Metrics) *Publisher {
	return &Publisher{
		producer: producer,
		broker:   broker,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// NewFromConfig connects the producer selected by events.driver.
func NewFromConfig(cfg config.EventsConfig, logger *slog.Logger, m *metrics.Metrics) (*Publisher, error) {
	var (
		producer Producer
		err      error
	)
	switch cfg.Driver {
	case "nats":
		producer, err = NewNATSProducer(cfg.NATS.URL, cfg.NATS.Subject, logger)
	case "kafka":
		producer, err = NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	case "none", "":
		producer = NoopProducer{}
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s producer: %w", cfg.Driver, err)
	}
	return NewPublisher(producer, cfg.Driver, logger, m), nil
}

// Publish wraps data in an Event envelope and sends it. A nil Publisher drops
// the event.
func (p *Publisher) Publish(ctx context.Context, key, eventType string, data any) {
	if p == nil || p.producer == nil {
		return
	}

	start := time.Now()
	err := p.producer.SendMessage(ctx, key, Event{
		Type:       eventType,
		OccurredAt: p.now().UTC(),
		Data:       data,
	})
	p.metrics.Events.RecordPublish(ctx, p.broker, eventType, time.Since(start), err)

	if err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event", "type", eventType, "key", key, "error", err)
		return
	}
	p.logger.DebugContext(ctx, "event published", "type", eventType, "key", key)
}

func (p *Publisher) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

type NoopProducer struct{}

func (NoopProducer) SendMessage(context.Context, string, any) error { return nil }

func (NoopProducer) Close() error { return nil }
