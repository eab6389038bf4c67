package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/pet-portal/internal/app/api"
	"github.com/Apurer/pet-portal/internal/domains/listings/application/finalize"
	platformobservability "github.com/Apurer/pet-portal/internal/platform/observability"
	listingactivities "github.com/Apurer/pet-portal/internal/platform/temporal/activities/listings"
	listingworkflows "github.com/Apurer/pet-portal/internal/platform/temporal/workflows/listings"
)

func main() {
	ctx := context.Background()
	const serviceName = "pet-portal-worker"
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

	cfg, err := api.LoadConfig()
	if err != nil {
		logger.Error("invalid worker configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	gateway, err := api.BuildListingGateway(cfg, instruments)
	if err != nil {
		logger.Error("failed to build listing gateway", slog.String("error", err.Error()))
		os.Exit(1)
	}
	activities := listingactivities.NewActivities(finalize.NewFinalizer(gateway))

	cfg.TemporalDisabled = false
	temporalClient, err := api.ConnectTemporal(cfg, instruments)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, listingworkflows.ListingFinalizationTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(listingworkflows.ListingFinalizationWorkflow, workflow.RegisterOptions{Name: listingworkflows.ListingFinalizationWorkflowName})
	w.RegisterActivityWithOptions(activities.FinalizeListing, activity.RegisterOptions{Name: listingactivities.FinalizeListingActivityName})

	logger.Info("worker listening", slog.String("taskQueue", listingworkflows.ListingFinalizationTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
