// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"gatekeeper/config"
	"gatekeeper/internal/domain/lifecycle"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/infra/bootstrap"

	"go.uber.org/fx"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const connectionMonitorInterval = 5 * time.Second

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New opens the PostgreSQL connection through the bounded-retry
// bootstrapper, so a container-orchestration race where the database comes
// up after the service does not kill the process.
func New(params Params) (*gorm.DB, error) {
	connector := bootstrap.NewConnector(params.Config, params.Logger)

	var db *gorm.DB
	dial := func(ctx context.Context) error {
		opened, err := gorm.Open(pgdriver.Open(params.Config.Postgres.DSN()), &gorm.Config{
			// Multi-step atomic operations go through the transaction
			// manager; per-statement implicit transactions only add latency.
			SkipDefaultTransaction: true,
			Logger:                 newGormSlogLogger(params.Logger, params.Config),
			TranslateError:         true,
		})
		if err != nil {
			return err
		}

		sqlDB, err := opened.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return err
		}

		db = opened

		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout*time.Duration(params.Config.Bootstrap.MaxRetries+1))
	defer cancel()

	if err := connector.Connect(ctx, "postgres", dial); err != nil {
		return nil, errors.Wrap(err, "failed to establish PostgreSQL connection")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get PostgreSQL sql.DB")
	}

	monitorCtx, cancelMonitor := context.WithCancel(context.Background())

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			pingCtx, cancelPing := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancelPing()

			if err := sqlDB.PingContext(pingCtx); err != nil {
				return errors.Wrap(err, "failed to ping PostgreSQL")
			}

			go monitorConnection(monitorCtx, params.Logger, sqlDB, connectionMonitorInterval)

			return nil
		},
		OnStop: func(_ context.Context) error {
			cancelMonitor()
			params.Logger.Info("Closing PostgreSQL connection")

			return sqlDB.Close()
		},
	})

	return db, nil
}

// monitorConnection watches for unexpected disconnects and logs state
// transitions. It replaces module-scope disconnect/reconnect event handlers
// with a goroutine owned by the connection's lifecycle.
func monitorConnection(ctx context.Context, logger *slog.Logger, sqlDB *sql.DB, interval time.Duration) {
	if logger == nil || sqlDB == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, interval)
			err := sqlDB.PingContext(pingCtx)
			cancel()

			switch {
			case err != nil && healthy:
				healthy = false
				logger.LogAttrs(ctx, slog.LevelError, "PostgreSQL connection lost",
					slog.Any("error", err),
					slog.Int("openConns", sqlDB.Stats().OpenConnections),
				)
			case err == nil && !healthy:
				healthy = true
				logger.LogAttrs(ctx, slog.LevelInfo, "PostgreSQL connection restored")
			}
		}
	}
}
