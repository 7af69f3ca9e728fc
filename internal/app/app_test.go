package app

import (
	"context"
	"log/slog"
	"testing"

	"github.com/RIKASH04/Resulyhub/common/metrics"
	"github.com/RIKASH04/Resulyhub/common/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNew_ReleasesTelemetryWhenDatabaseIsDown(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	initTelemetry = func(context.Context, telemetry.Options, *slog.Logger) (*telemetry.Telemetry, error) {
		return &telemetry.Telemetry{
			MeterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
			Metrics:       metrics.NewMock(),
		}, nil
	}
	t.Cleanup(func() { initTelemetry = telemetry.Init })

	t.Chdir(t.TempDir())
	t.Setenv("ENV", "test")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DATABASE_PORT", "1")

	a, err := New(context.Background())
	require.Error(t, err)
	assert.Nil(t, a)

	var rm metricdata.ResourceMetrics
	assert.ErrorIs(t, reader.Collect(context.Background(), &rm), sdkmetric.ErrReaderShutdown)
}
