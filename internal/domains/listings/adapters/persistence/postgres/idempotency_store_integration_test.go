//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	listingpostgres "github.com/Apurer/pet-portal/internal/domains/listings/adapters/persistence/postgres"
	"github.com/Apurer/pet-portal/internal/domains/listings/ports"
	"github.com/Apurer/pet-portal/internal/platform/migrations"
	platformpostgres "github.com/Apurer/pet-portal/internal/platform/postgres"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("petportal_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := platformpostgres.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, migrations.Run(db))
	return db
}

func TestIdempotencyStore_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	store := listingpostgres.NewIdempotencyStore(setupPostgres(t))
	ctx := context.Background()

	missing, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.Nil(t, missing)

	saved, err := store.Save(ctx, ports.IdempotencyRecord{Key: "k1", RequestHash: "h1", ListingID: "listing-1"})
	require.NoError(t, err)
	require.Equal(t, "listing-1", saved.ListingID)

	replay, err := store.Save(ctx, ports.IdempotencyRecord{Key: "k1", RequestHash: "h1", ListingID: "listing-2"})
	require.NoError(t, err)
	require.Equal(t, "listing-1", replay.ListingID)

	_, err = store.Save(ctx, ports.IdempotencyRecord{Key: "k1", RequestHash: "h2", ListingID: "listing-1"})
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
}
