package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/nssuwan186-dev/fullstack-platform/internal/config"
	"github.com/nssuwan186-dev/fullstack-platform/internal/dbguard"
)

// setupAppDatabase opens the shared connection pool and blocks until the
// database answers or the connectivity guard gives up.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	guardCfg := dbguard.Config{
		MaxAttempts: cfg.Database.ConnectMaxAttempts,
		Interval:    cfg.Database.ConnectRetryInterval,
	}
	if err := dbguard.WaitForDB(ctx, db, guardCfg, logger.With("component", "dbguard")); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
