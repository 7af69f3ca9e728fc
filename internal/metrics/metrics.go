// Package metrics holds the business counters of the results service.
package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	resultLookups       metric.Int64Counter
	summariesRecomputed metric.Int64Counter
	studentsCreated     metric.Int64Counter
	marksUpdated        metric.Int64Counter
	classesCreated      metric.Int64Counter
}

func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.resultLookups, err = meter.Int64Counter(
		"results.lookups",
		metric.WithDescription("Public marksheet lookups by outcome"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, err
	}

	if m.summariesRecomputed, err = meter.Int64Counter(
		"results.summaries_recomputed",
		metric.WithDescription("Result summaries written, by trigger"),
		metric.WithUnit("{summary}"),
	); err != nil {
		return nil, err
	}

	if m.studentsCreated, err = meter.Int64Counter(
		"students.created",
		metric.WithDescription("Students created with their marks"),
		metric.WithUnit("{student}"),
	); err != nil {
		return nil, err
	}

	if m.marksUpdated, err = meter.Int64Counter(
		"marks.updated",
		metric.WithDescription("Bulk mark edits"),
		metric.WithUnit("{edit}"),
	); err != nil {
		return nil, err
	}

	if m.classesCreated, err = meter.Int64Counter(
		"classes.created",
		metric.WithDescription("Classes created by bulk creation"),
		metric.WithUnit("{class}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordResultLookup counts one lookup; outcome is "summary", "computed" or
// "not_found".
func (m *Metrics) RecordResultLookup(ctx context.Context, outcome string) {
	if m != nil && m.resultLookups != nil {
		m.resultLookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func (m *Metrics) RecordSummariesRecomputed(ctx context.Context, trigger string, n int) {
	if m != nil && m.summariesRecomputed != nil && n > 0 {
		m.summariesRecomputed.Add(ctx, int64(n), metric.WithAttributes(attribute.String("trigger", trigger)))
	}
}

func (m *Metrics) RecordStudentCreated(ctx context.Context) {
	if m != nil && m.studentsCreated != nil {
		m.studentsCreated.Add(ctx, 1)
	}
}

func (m *Metrics) RecordMarksUpdated(ctx context.Context) {
	if m != nil && m.marksUpdated != nil {
		m.marksUpdated.Add(ctx, 1)
	}
}

func (m *Metrics) RecordClassesCreated(ctx context.Context, n int) {
	if m != nil && m.classesCreated != nil && n > 0 {
		m.classesCreated.Add(ctx, int64(n))
	}
}

// NewMock creates a no-op Metrics instance for testing.
func NewMock() *Metrics {
	return &Metrics{}
}
