// Package retry runs fallible operations with a bounded, fixed backoff
// schedule and cooperative cancellation.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clipdl/internal/consts"
	"clipdl/internal/errs"
)

// Operation is one fallible attempt of a sub-download.
type Operation func(ctx context.Context) error

// Executor retries an operation up to a fixed number of attempts, sleeping
// the configured delay between failures. Cancellation short-circuits both the
// attempts and the backoff sleep.
type Executor struct {
	log         *slog.Logger
	maxAttempts int
	delays      []time.Duration

	// OnRetry, when set, is notified before each re-attempt. Observability
	// only; it does not affect control flow.
	OnRetry func(attempt, total int, err error)
}

// New creates an Executor with the application's standard schedule.
func New(log *slog.Logger) *Executor {
	return NewWithSchedule(log, consts.MaxRetries, consts.RetryDelays)
}

// NewWithSchedule creates an Executor with a custom attempt bound and delays.
func NewWithSchedule(log *slog.Logger, maxAttempts int, delays []time.Duration) *Executor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	return &Executor{
		log:         log.With(slog.String("package", "retry")),
		maxAttempts: maxAttempts,
		delays:      delays,
	}
}

// Do runs op up to the attempt bound. It returns nil on the first success,
// errs.ErrCancelled as soon as cancellation is observed, and otherwise the
// last attempt's error once the bound is exhausted.
func (e *Executor) Do(ctx context.Context, op Operation) error {
	var lastErr error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return errs.ErrCancelled
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		if errors.Is(err, errs.ErrCancelled) || errors.Is(err, context.Canceled) {
			return errs.ErrCancelled
		}

		lastErr = err

		if attempt == e.maxAttempts {
			break
		}

		if ctx.Err() != nil {
			return errs.ErrCancelled
		}

		e.log.WarnContext(ctx, "attempt failed, will retry",
			slog.Int("attempt", attempt),
			slog.Int("total", e.maxAttempts),
			slog.Any("error", err))

		if e.OnRetry != nil {
			e.OnRetry(attempt, e.maxAttempts, err)
		}

		if sleepErr := e.sleep(ctx, e.delay(attempt-1)); sleepErr != nil {
			return errs.ErrCancelled
		}
	}

	e.log.ErrorContext(ctx, "all attempts exhausted",
		slog.Int("attempts", e.maxAttempts),
		slog.Any("error", lastErr))

	return lastErr
}

func (e *Executor) delay(idx int) time.Duration {
	if idx < len(e.delays) {
		return e.delays[idx]
	}

	if len(e.delays) == 0 {
		return 0
	}

	return e.delays[len(e.delays)-1]
}

// sleep waits for d or until ctx is cancelled, whichever comes first. The
// interruptible wait keeps cancellation latency low even mid-backoff.
func (e *Executor) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
