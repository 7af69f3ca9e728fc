package metrics

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GrpcMetrics tracks latency, traffic, errors and in-flight calls of the
// gRPC listener.
type GrpcMetrics struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
	errors   metric.Int64Counter
	active   metric.Int64UpDownCounter
}

func NewGrpcMetrics(meter metric.Meter) (*GrpcMetrics, error) {
	gm := &GrpcMetrics{}
	var err error

	if gm.duration, err = meter.Float64Histogram(
		"grpc.server.request_duration",
		metric.WithDescription("gRPC request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if gm.requests, err = meter.Int64Counter("grpc.server.requests_total",
		metric.WithDescription("Total number of gRPC requests"),
		metric.WithUnit("{request}")); err != nil {
		return nil, err
	}
	if gm.errors, err = meter.Int64Counter("grpc.server.errors_total",
		metric.WithDescription("Total number of gRPC errors"),
		metric.WithUnit("{error}")); err != nil {
		return nil, err
	}
	if gm.active, err = meter.Int64UpDownCounter("grpc.server.active_requests",
		metric.WithDescription("Number of active gRPC requests"),
		metric.WithUnit("{request}")); err != nil {
		return nil, err
	}

	return gm, nil
}

// UnaryServerInterceptor records the golden signals of every unary call.
func (gm *GrpcMetrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if gm == nil || gm.duration == nil {
			return handler(ctx, req)
		}

		service, method := splitMethodName(info.FullMethod)
		callAttrs := metric.WithAttributes(
			attribute.String("grpc_service", service),
			attribute.String("grpc_method", method),
		)

		gm.active.Add(ctx, 1, callAttrs)
		defer gm.active.Add(ctx, -1, callAttrs)

		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		attrs := metric.WithAttributes(
			attribute.String("grpc_service", service),
			attribute.String("grpc_method", method),
			attribute.String("grpc_code", code.String()),
		)
		gm.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		gm.requests.Add(ctx, 1, attrs)
		if code != codes.OK {
			gm.errors.Add(ctx, 1, attrs)
		}

		return resp, err
	}
}

// splitMethodName splits "/package.Service/Method" into service and method.
func splitMethodName(fullMethod string) (string, string) {
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	if i := strings.LastIndex(fullMethod, "/"); i >= 0 {
		return fullMethod[:i], fullMethod[i+1:]
	}
	return "unknown", fullMethod
}
