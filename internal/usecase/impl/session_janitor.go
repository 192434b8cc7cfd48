package impl

import (
	"context"
	"log/slog"
	"time"

	"gatekeeper/internal/domain/repository"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// defaultSweepInterval bounds how long an expired refresh session can linger
// in storage. Expired rows are already unusable, the sweep only reclaims space.
const defaultSweepInterval = time.Hour

// SessionJanitor periodically removes expired refresh sessions from storage.
type SessionJanitor struct {
	txManager repository.TransactionManager
	logger    *slog.Logger
	interval  time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// SessionJanitorParams holds dependencies for SessionJanitor, injected by Fx.
type SessionJanitorParams struct {
	fx.In
	fx.Lifecycle

	TxManager repository.TransactionManager
	Logger    *slog.Logger
}

// NewSessionJanitor builds the janitor and hooks its sweep loop into the
// application lifecycle.
func NewSessionJanitor(params SessionJanitorParams) *SessionJanitor {
	j := &SessionJanitor{
		txManager: params.TxManager,
		logger:    params.Logger,
		interval:  defaultSweepInterval,
		done:      make(chan struct{}),
	}

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, cancel := context.WithCancel(context.Background())
			j.cancel = cancel
			go j.run(runCtx)

			return nil
		},
		OnStop: func(ctx context.Context) error {
			j.cancel()
			select {
			case <-j.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})

	return j
}

// run sweeps once at startup, then on every tick until the context ends.
func (j *SessionJanitor) run(ctx context.Context) {
	defer close(j.done)

	if err := j.Sweep(ctx); err != nil {
		j.logger.Error("Expired session sweep failed", slog.Any("error", err))
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Sweep(ctx); err != nil {
				j.logger.Error("Expired session sweep failed", slog.Any("error", err))
			}
		}
	}
}

// Sweep deletes every refresh session past its expiry.
func (j *SessionJanitor) Sweep(ctx context.Context) error {
	err := j.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.RefreshSessionRepo().DeleteExpired(ctx); err != nil {
			return errors.Wrap(err, "failed to delete expired refresh sessions")
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to execute expired session sweep")
	}

	j.logger.Debug("Expired session sweep completed")

	return nil
}
