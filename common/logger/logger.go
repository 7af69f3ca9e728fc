package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel/trace"
)

// New builds the process logger. Kubernetes and deployed environments get JSON,
// local runs get text with red errors. Both add trace_id/span_id when the
// context carries a span.
func New(env string) *slog.Logger {
	return slog.New(newTraceContextHandler(newHandler(os.Stdout, env)))
}

func NewWithServiceContext(serviceName, version, env string) *slog.Logger {
	return New(env).With(
		slog.String("service", serviceName),
		slog.String("version", version),
		slog.String("environment", env),
	)
}

func newHandler(w io.Writer, env string) slog.Handler {
	_, inK8s := os.LookupEnv("KUBERNETES_SERVICE_HOST")
	if inK8s || (env != "local" && env != "test" && env != "") {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: true,
		})
	}
	return &colorTextHandler{Handler: slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})}
}

// colorTextHandler paints ERROR messages red.
type colorTextHandler struct {
	slog.Handler
}

func (h *colorTextHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < slog.LevelError {
		return h.Handler.Handle(ctx, r)
	}
	colored := slog.NewRecord(r.Time, r.Level, fmt.Sprintf("\x1b[31m%s\x1b[0m", r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		colored.AddAttrs(a)
		return true
	})
	return h.Handler.Handle(ctx, colored)
}

func (h *colorTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &colorTextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *colorTextHandler) WithGroup(name string) slog.Handler {
	return &colorTextHandler{Handler: h.Handler.WithGroup(name)}
}

type traceContextHandler struct {
	slog.Handler
}

func newTraceContextHandler(h slog.Handler) *traceContextHandler {
	return &traceContextHandler{Handler: h}
}

func (h *traceContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceContextHandler) WithGroup(name string) slog.Handler {
	return &traceContextHandler{Handler: h.Handler.WithGroup(name)}
}
