package database

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/vietddude/newsdesk/internal/core/metrics"
)

// Operation is one unit of database work. It must only use the db it is given.
type Operation[T any] func(ctx context.Context, db *gorm.DB) (T, error)

// HandleSource supplies the handles ExecuteWithRetry runs operations on.
type HandleSource interface {
	Primary(ctx context.Context) (*Handle, error)
	NewFreshHandle(ctx context.Context) (*Handle, error)
}

// ExecuteWithRetry runs op on the primary handle and recovers from duplicate prepared
// statement errors.
//
// The first attempt uses the primary handle. Each further attempt, made only while the
// previous one failed with a transient conflict, runs on a fresh handle that is closed
// as soon as the attempt returns. The primary handle is never reset here. Any other
// error, and the error of the last allowed attempt, is returned unchanged.
func ExecuteWithRetry[T any](
	ctx context.Context,
	src HandleSource,
	op Operation[T],
	cfg RetryConfig,
) (T, error) {
	var zero T
	if cfg.MaxAttempts < 0 {
		return zero, ErrInvalidRetryConfig
	}
	cfg = cfg.withDefaults()
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	primary, err := src.Primary(ctx)
	if err != nil {
		return zero, err
	}

	result, err := op(ctx, primary.DB())
	if err == nil {
		return result, nil
	}

	for attempt := 2; attempt <= cfg.MaxAttempts; attempt++ {
		if !IsTransientConflict(err) {
			return zero, err
		}
		metrics.DBTransientConflicts.Inc()

		// No wait before the first fresh attempt; after that 1x, 2x, ... the backoff
		if retries := attempt - 2; retries > 0 {
			if werr := sleep(ctx, cfg.Backoff*time.Duration(retries)); werr != nil {
				return zero, werr
			}
		}

		fresh, ferr := src.NewFreshHandle(ctx)
		if ferr != nil {
			return zero, ferr
		}

		result, err = runOnFreshHandle(ctx, log, fresh, op)
		if err == nil {
			metrics.DBRetries.WithLabelValues("success").Inc()
			return result, nil
		}

		metrics.DBRetries.WithLabelValues("failure").Inc()
		log.Warn("Retry on fresh database handle failed",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"error", err,
		)
	}

	if IsTransientConflict(err) {
		metrics.DBTransientConflicts.Inc()
	}
	return zero, err
}

func runOnFreshHandle[T any](ctx context.Context, log *slog.Logger, fresh *Handle, op Operation[T]) (T, error) {
	defer func() {
		if cerr := fresh.Close(); cerr != nil {
			log.Warn("Failed to close fresh database handle", "handle", fresh.ID(), "error", cerr)
		}
	}()

	return op(ctx, fresh.DB())
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
