package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Apurer/pet-portal/internal/app/api"
	"github.com/Apurer/pet-portal/internal/devbackend"
	platformobservability "github.com/Apurer/pet-portal/internal/platform/observability"
	platformpostgres "github.com/Apurer/pet-portal/internal/platform/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	const serviceName = "pet-portal-devbackend"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	port := envOrDefault("PORT", "8090")
	publicURL := envOrDefault("PUBLIC_URL", "http://localhost:"+port)

	var (
		listings devbackend.ListingStore = devbackend.NewMemoryListingStore()
		objects  devbackend.ObjectStore  = devbackend.NewMemoryObjectStore()
	)
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db != nil {
		listings = devbackend.NewPostgresListingStore(db)
		objects = devbackend.NewPostgresObjectStore(db)
		logger.Info("development backend configured with postgres")
	}

	server := devbackend.NewServer(listings, objects, publicURL, devbackend.WithLogger(logger))
	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           server.Router(otelgin.Middleware(serviceName)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := api.Serve(ctx, httpServer, logger); err != nil {
		logger.Error("development backend exited", slog.String("error", err.Error()))
	}
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
