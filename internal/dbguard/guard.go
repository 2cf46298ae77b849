// Package dbguard blocks application startup until the database answers a
// trivial query, retrying a bounded number of times.
package dbguard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	// DefaultMaxAttempts is the number of probes made before giving up.
	DefaultMaxAttempts = 10
	// DefaultInterval is the pause between failed probes.
	DefaultInterval = 2 * time.Second
	// DefaultAttemptTimeout bounds a single probe.
	DefaultAttemptTimeout = 5 * time.Second

	probeQuery = "SELECT 1"
)

// ErrDatabaseUnavailable is returned once every attempt has failed.
var ErrDatabaseUnavailable = errors.New("database unavailable")

// Execer is the subset of *sql.DB the guard needs.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Config controls retry behaviour. Zero values select the defaults.
type Config struct {
	MaxAttempts    int
	Interval       time.Duration
	AttemptTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = DefaultAttemptTimeout
	}
	return c
}

// WaitForDB probes db with "SELECT 1" until it succeeds or cfg.MaxAttempts
// probes have failed. Each failure is logged with its attempt number. The
// returned error wraps ErrDatabaseUnavailable and the last probe error; callers
// are expected to treat it as fatal.
func WaitForDB(ctx context.Context, db Execer, cfg Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	backoff := retry.WithMaxRetries(uint64(cfg.MaxAttempts-1), retry.NewConstant(cfg.Interval))

	attempt := 0
	var lastErr error
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		probeCtx, cancel := context.WithTimeout(ctx, cfg.AttemptTimeout)
		defer cancel()

		if _, err := db.ExecContext(probeCtx, probeQuery); err != nil {
			lastErr = err
			logger.Warn("database connection attempt failed",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", cfg.MaxAttempts),
				slog.String("error", err.Error()))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err == nil {
		logger.Info("database connection established", slog.Int("attempt", attempt))
		return nil
	}

	if lastErr == nil {
		lastErr = err
	}
	logger.Error("database unavailable, giving up",
		slog.Int("attempts", attempt),
		slog.String("error", lastErr.Error()))

	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w after %d attempts: %w", ErrDatabaseUnavailable, attempt, ctxErr)
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrDatabaseUnavailable, attempt, lastErr)
}
