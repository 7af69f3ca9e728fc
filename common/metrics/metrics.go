// Package metrics holds the OpenTelemetry instruments shared by every
// component of the results service. All Record* methods are safe on a nil
// receiver or a zero value, so NewMock can be passed around in tests.
package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
)

// latencyBuckets covers 1ms..10s and is used by every duration histogram.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0,
}

type Metrics struct {
	Runtime      *RuntimeMetrics
	Database     *DatabaseMetrics
	Events       *EventMetrics
	Dependencies *DependencyMetrics
	Grpc         *GrpcMetrics
}

func New(ctx context.Context, serviceName string, logger *slog.Logger) (*Metrics, error) {
	meter := otel.Meter(serviceName)

	runtime, err := NewRuntimeMetrics(ctx, meter)
	if err != nil {
		return nil, err
	}

	database, err := NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	events, err := NewEventMetrics(meter)
	if err != nil {
		return nil, err
	}

	deps, err := NewDependencyMetrics(meter)
	if err != nil {
		return nil, err
	}

	grpcMetrics, err := NewGrpcMetrics(meter)
	if err != nil {
		return nil, err
	}

	logger.Info("metrics collectors initialized")

	return &Metrics{
		Runtime:      runtime,
		Database:     database,
		Events:       events,
		Dependencies: deps,
		Grpc:         grpcMetrics,
	}, nil
}

// NewMock creates a no-op Metrics instance for testing.
func NewMock() *Metrics {
	return &Metrics{
		Runtime:      &RuntimeMetrics{},
		Database:     &DatabaseMetrics{},
		Events:       &EventMetrics{},
		Dependencies: &DependencyMetrics{},
		Grpc:         &GrpcMetrics{},
	}
}
