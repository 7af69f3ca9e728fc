// Package telemetry wires the OTLP metric exporter and builds the shared
// metric instruments.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/RIKASH04/Resulyhub/common/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Options struct {
	ServiceName    string
	ServiceVersion string
	Env            string
	// Endpoint of the OTLP collector. Empty disables export; instruments are
	// still created against the global (no-op) provider.
	Endpoint string
}

type Telemetry struct {
	MeterProvider *sdkmetric.MeterProvider
	Metrics       *metrics.Metrics
}

func Init(ctx context.Context, opts Options, logger *slog.Logger) (*Telemetry, error) {
	t := &Telemetry{}

	if opts.Endpoint != "" {
		mp, err := newMeterProvider(ctx, opts, logger)
		if err != nil {
			return nil, err
		}
		otel.SetMeterProvider(mp)
		t.MeterProvider = mp
	}

	m, err := metrics.New(ctx, opts.ServiceName, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	t.Metrics = m

	return t, nil
}

func newMeterProvider(ctx context.Context, opts Options, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	logger.Info("initializing OTel metrics", "endpoint", opts.Endpoint)

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.ServiceVersion),
			attribute.String("deployment.environment", opts.Env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(opts.Endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))),
	), nil
}

// Shutdown flushes pending metrics. It is a no-op when export is disabled.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.MeterProvider == nil {
		return nil
	}
	if err := t.MeterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	return nil
}
