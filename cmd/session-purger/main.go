package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	accountpostgres "github.com/Apurer/pet-portal/internal/domains/accounts/adapters/persistence/postgres"
	platformobservability "github.com/Apurer/pet-portal/internal/platform/observability"
	platformpostgres "github.com/Apurer/pet-portal/internal/platform/postgres"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := platformobservability.NewCommandLogger(os.Stdout)
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	if db == nil {
		logger.Error("portal sessions live in memory without POSTGRES_DSN; nothing to purge")
		os.Exit(1)
	}

	purged, err := accountpostgres.NewSessionStore(db).PurgeExpired(ctx, time.Now())
	cleanup()
	if err != nil {
		logger.Error("session purge failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("session purge completed", slog.Int64("removed", purged))
}
