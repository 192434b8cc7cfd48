package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"gatekeeper/config"
	"gatekeeper/internal/errors"
)

// Connector dials an external dependency with bounded retry. Retry state is
// local to a single Connect call and never shared across calls or restarts.
type Connector struct {
	maxRetries int
	backoff    Backoff
	logger     *slog.Logger

	// sleep waits for the given duration or until the context is done.
	// Overridable in tests so retries do not take wall-clock time.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewConnector builds a connector from the bootstrap configuration.
func NewConnector(cfg *config.Config, logger *slog.Logger) *Connector {
	return &Connector{
		maxRetries: cfg.Bootstrap.MaxRetries,
		backoff:    PolicyFromConfig(cfg.Bootstrap),
		logger:     logger,
		sleep:      sleepCtx,
	}
}

// Connect attempts dial up to the configured maximum number of attempts,
// waiting the backoff interval between failures. Exhausting the budget
// returns an error wrapping the last cause; all other failures during
// normal operation are never retried here.
func (c *Connector) Connect(ctx context.Context, name string, dial func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		c.logger.Info("Attempting connection",
			slog.String("dependency", name),
			slog.Int("attempt", attempt),
			slog.Int("maxRetries", c.maxRetries),
		)

		lastErr = dial(ctx)
		if lastErr == nil {
			c.logger.Info("Connection established",
				slog.String("dependency", name),
				slog.Int("attempt", attempt),
			)

			return nil
		}

		c.logger.Warn("Connection attempt failed",
			slog.String("dependency", name),
			slog.Int("attempt", attempt),
			slog.Int("maxRetries", c.maxRetries),
			slog.Any("error", lastErr),
		)

		if attempt == c.maxRetries {
			break
		}

		delay := c.backoff.Next(attempt)
		c.logger.Info("Retrying connection",
			slog.String("dependency", name),
			slog.Duration("delay", delay),
		)

		if err := c.sleep(ctx, delay); err != nil {
			return errors.Wrapf(err, "%s connection canceled while waiting to retry", name)
		}
	}

	return errors.Wrapf(lastErr, "failed to connect to %s after %d attempts", name, c.maxRetries)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
