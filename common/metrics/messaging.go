package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EventMetrics counts result events handed to the broker.
type EventMetrics struct {
	published       metric.Int64Counter
	publishErrors   metric.Int64Counter
	publishDuration metric.Float64Histogram
}

func NewEventMetrics(meter metric.Meter) (*EventMetrics, error) {
	em := &EventMetrics{}
	var err error

	if em.published, err = meter.Int64Counter(
		"messaging.messages.published",
		metric.WithDescription("Total number of events published"),
		metric.WithUnit("{message}"),
	); err != nil {
		return nil, err
	}

	if em.publishErrors, err = meter.Int64Counter(
		"messaging.messages.errors",
		metric.WithDescription("Events the broker rejected"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if em.publishDuration, err = meter.Float64Histogram(
		"messaging.message.publish_duration",
		metric.WithDescription("Time spent publishing an event"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return em, nil
}

func (em *EventMetrics) RecordPublish(ctx context.Context, broker, eventType string, duration time.Duration, err error) {
	if em == nil || em.published == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("broker", broker),
		attribute.String("event_type", eventType),
	)
	em.published.Add(ctx, 1, attrs)
	em.publishDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		em.publishErrors.Add(ctx, 1, attrs)
	}
}
