// Package reconcile periodically rebuilds every cached result summary from the
// raw marks and purges expired admin refresh tokens.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const runTimeout = 4 * time.Minute

type SummaryRebuilder interface {
	RecomputeAll(ctx context.Context) (int, error)
}

type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type Reconciler struct {
	cron      *cron.Cron
	summaries SummaryRebuilder
	tokens    TokenPurger
	logger    *slog.Logger
}

// New schedules the reconciliation on a cron schedule such as "@every 1h" or
// "0 3 * * *". A run still in progress makes the next tick a no-op.
func New(schedule string, summaries SummaryRebuilder, tokens TokenPurger, logger *slog.Logger) (*Reconciler, error) {
	cronLogger := slogCronLogger{logger: logger}
	r := &Reconciler{
		cron:      cron.New(cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)), cron.WithLogger(cronLogger)),
		summaries: summaries,
		tokens:    tokens,
		logger:    logger,
	}

	if _, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		r.RunOnce(ctx)
	}); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", schedule, err)
	}

	return r, nil
}

func (r *Reconciler) Start() {
	r.logger.Info("reconciler started")
	r.cron.Start()
}

// Stop prevents new runs and waits for a running one until ctx is done.
func (r *Reconciler) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs a single reconciliation. Failures are logged; the next
// scheduled run retries.
func (r *Reconciler) RunOnce(ctx context.Context) {
	start := time.Now()

	if r.summaries != nil {
		n, err := r.summaries.RecomputeAll(ctx)
		if err != nil {
			r.logger.ErrorContext(ctx, "summary reconciliation failed", "error", err, "recomputed", n)
		} else {
			r.logger.InfoContext(ctx, "summaries reconciled", "recomputed", n, "duration", time.Since(start))
		}
	}

	if r.tokens != nil {
		n, err := r.tokens.PurgeExpired(ctx)
		if err != nil {
			r.logger.ErrorContext(ctx, "refresh token purge failed", "error", err)
		} else if n > 0 {
			r.logger.InfoContext(ctx, "expired refresh tokens purged", "count", n)
		}
	}
}

// slogCronLogger adapts slog to cron.Logger.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
