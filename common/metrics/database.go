package metrics

import (
	"context"
	"database/sql"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DatabaseMetrics records query latency per (operation, table) and observes
// the sql.DB connection pool.
type DatabaseMetrics struct {
	queryDuration metric.Float64Histogram
	queryErrors   metric.Int64Counter
	poolOpen      metric.Int64ObservableGauge
	poolIdle      metric.Int64ObservableGauge
	poolInUse     metric.Int64ObservableGauge
	poolWaitCount metric.Int64ObservableCounter
}

func NewDatabaseMetrics(meter metric.Meter) (*DatabaseMetrics, error) {
	dm := &DatabaseMetrics{}
	var err error

	if dm.queryDuration, err = meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Database query duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if dm.queryErrors, err = meter.Int64Counter(
		"db.query.errors",
		metric.WithDescription("Database query errors"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	if dm.poolOpen, err = meter.Int64ObservableGauge("db.connections.open",
		metric.WithDescription("Open database connections"),
		metric.WithUnit("{connection}")); err != nil {
		return nil, err
	}
	if dm.poolIdle, err = meter.Int64ObservableGauge("db.connections.idle",
		metric.WithDescription("Idle database connections"),
		metric.WithUnit("{connection}")); err != nil {
		return nil, err
	}
	if dm.poolInUse, err = meter.Int64ObservableGauge("db.connections.in_use",
		metric.WithDescription("In-use database connections"),
		metric.WithUnit("{connection}")); err != nil {
		return nil, err
	}
	if dm.poolWaitCount, err = meter.Int64ObservableCounter("db.connections.wait_count",
		metric.WithDescription("Connections waited for"),
		metric.WithUnit("{wait}")); err != nil {
		return nil, err
	}

	return dm, nil
}

// ObservePool reports pool statistics of db on every collection cycle.
func (dm *DatabaseMetrics) ObservePool(db *sql.DB, meter metric.Meter) error {
	if dm == nil || dm.poolOpen == nil {
		return nil
	}
	_, err := meter.RegisterCallback(
		func(_ context.Context, o metric.Observer) error {
			stats := db.Stats()
			o.ObserveInt64(dm.poolOpen, int64(stats.OpenConnections))
			o.ObserveInt64(dm.poolIdle, int64(stats.Idle))
			o.ObserveInt64(dm.poolInUse, int64(stats.InUse))
			o.ObserveInt64(dm.poolWaitCount, stats.WaitCount)
			return nil
		},
		dm.poolOpen, dm.poolIdle, dm.poolInUse, dm.poolWaitCount,
	)
	return err
}

func (dm *DatabaseMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration, err error) {
	if dm == nil || dm.queryDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("table", table),
	)
	dm.queryDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		dm.queryErrors.Add(ctx, 1, attrs)
	}
}
