package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DependencyMetrics exposes dependency.up (1/0) per dependency probed by the
// readiness endpoint, plus the probe latency.
type DependencyMetrics struct {
	up        metric.Int64ObservableGauge
	checkTime metric.Float64Histogram

	mu     sync.RWMutex
	status map[string]bool
}

func NewDependencyMetrics(meter metric.Meter) (*DependencyMetrics, error) {
	dm := &DependencyMetrics{status: make(map[string]bool)}
	var err error

	if dm.up, err = meter.Int64ObservableGauge(
		"dependency.up",
		metric.WithDescription("Dependency availability (1=up, 0=down)"),
		metric.WithUnit("{status}"),
	); err != nil {
		return nil, err
	}

	if dm.checkTime, err = meter.Float64Histogram(
		"dependency.check_duration",
		metric.WithDescription("Dependency health check duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		dm.mu.RLock()
		defer dm.mu.RUnlock()
		for name, ok := range dm.status {
			v := int64(0)
			if ok {
				v = 1
			}
			o.ObserveInt64(dm.up, v, metric.WithAttributes(attribute.String("dependency", name)))
		}
		return nil
	}, dm.up)
	if err != nil {
		return nil, err
	}

	return dm, nil
}

func (dm *DependencyMetrics) RecordCheck(ctx context.Context, dependency string, duration time.Duration, err error) {
	if dm == nil || dm.checkTime == nil {
		return
	}

	dm.checkTime.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("dependency", dependency)))

	dm.mu.Lock()
	dm.status[dependency] = err == nil
	dm.mu.Unlock()
}
