package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	portalserver "github.com/Apurer/pet-portal/go"

	accountidentity "github.com/Apurer/pet-portal/internal/domains/accounts/adapters/identity"
	accountmemory "github.com/Apurer/pet-portal/internal/domains/accounts/adapters/memory"
	accountobs "github.com/Apurer/pet-portal/internal/domains/accounts/adapters/observability"
	accountpostgres "github.com/Apurer/pet-portal/internal/domains/accounts/adapters/persistence/postgres"
	accountsapp "github.com/Apurer/pet-portal/internal/domains/accounts/application"
	accountsports "github.com/Apurer/pet-portal/internal/domains/accounts/ports"

	listingmemory "github.com/Apurer/pet-portal/internal/domains/listings/adapters/memory"
	listingobs "github.com/Apurer/pet-portal/internal/domains/listings/adapters/observability"
	listingpostgres "github.com/Apurer/pet-portal/internal/domains/listings/adapters/persistence/postgres"
	"github.com/Apurer/pet-portal/internal/domains/listings/adapters/rest"
	"github.com/Apurer/pet-portal/internal/domains/listings/adapters/transfer"
	listingworkflows "github.com/Apurer/pet-portal/internal/domains/listings/adapters/workflows"
	listingsapp "github.com/Apurer/pet-portal/internal/domains/listings/application"
	listingsports "github.com/Apurer/pet-portal/internal/domains/listings/ports"

	"github.com/Apurer/pet-portal/internal/platform/httpclient"
	platformobservability "github.com/Apurer/pet-portal/internal/platform/observability"
	platformpostgres "github.com/Apurer/pet-portal/internal/platform/postgres"
)

const serviceName = "pet-portal-api"

// Run boots the portal HTTP API with observability, stores, and workflows wired.
// It returns when ctx is cancelled or the server fails.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanupDB := platformpostgres.ConnectDSN(ctx, cfg.PostgresDSN, logger)
	defer cleanupDB()

	accounts, err := buildAccounts(cfg, db, instruments)
	if err != nil {
		return err
	}
	if cfg.SessionPurgeIntervalMinute > 0 {
		go purgeSessions(ctx, accounts, time.Duration(cfg.SessionPurgeIntervalMinute)*time.Minute, logger)
	}

	gateway, err := BuildListingGateway(cfg, instruments)
	if err != nil {
		return err
	}
	var finalizer listingsports.WorkflowOrchestrator = listingworkflows.NewInlineListingWorkflows(gateway)
	if temporalClient, err := ConnectTemporal(cfg, instruments); err != nil {
		logger.Warn("Temporal workflows unavailable, finalizing listings inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		finalizer = listingworkflows.NewTemporalListingWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}
	coordinator, err := BuildCoordinator(cfg, gateway, finalizer, idempotencyStore(db, cfg.IdempotencyRetention), instruments)
	if err != nil {
		return err
	}

	cookie := portalserver.SessionCookie{Secure: cfg.SessionCookieSecure, MaxAge: cfg.SessionTTL}
	handlers := portalserver.ApiHandleFunctions{
		PortalAPI:   portalserver.NewPortalAPI(gateway),
		ListingsAPI: portalserver.NewListingsAPI(gateway, coordinator, cfg.MaxUploadBytes),
		AccountsAPI: portalserver.NewAccountsAPI(accounts, cookie),
	}
	router := portalserver.NewRouter(handlers,
		otelgin.Middleware(serviceName),
		portalserver.SessionMiddleware(accounts, cookie),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return Serve(ctx, server, logger)
}

// Serve runs server until ctx is cancelled, then drains in-flight requests.
func Serve(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", slog.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("HTTP server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("HTTP server shutting down", slog.String("addr", server.Addr))
	return server.Shutdown(shutdownCtx)
}

// BuildListingGateway wires the REST facade client with tracing decorators.
func BuildListingGateway(cfg Config, instruments *platformobservability.Instruments) (listingsports.Gateway, error) {
	backend, err := httpclient.New(cfg.BackendURL, cfg.HTTPTimeout)
	if err != nil {
		return nil, fmt.Errorf("listing backend client: %w", err)
	}
	uploads, err := httpclient.New(cfg.UploadServiceURL, cfg.HTTPTimeout)
	if err != nil {
		return nil, fmt.Errorf("upload service client: %w", err)
	}
	restClient, err := rest.NewClient(backend, rest.WithUploadClient(uploads))
	if err != nil {
		return nil, err
	}
	return listingobs.NewGateway(restClient, listingInstrumentation(instruments)...), nil
}

// BuildCoordinator wires the upload coordinator around gateway and finalizer.
func BuildCoordinator(cfg Config, gateway listingsports.Gateway, finalizer listingsports.WorkflowOrchestrator, store listingsports.IdempotencyStore, instruments *platformobservability.Instruments) (listingsports.Coordinator, error) {
	objects, err := httpclient.New("", cfg.HTTPTimeout)
	if err != nil {
		return nil, fmt.Errorf("object transfer client: %w", err)
	}
	core := listingsapp.NewCoordinator(
		gateway,
		transfer.NewUploader(objects),
		finalizer,
		listingsapp.WithIdempotencyStore(store),
	)
	return listingobs.NewCoordinator(core, listingInstrumentation(instruments)...), nil
}

// ConnectTemporal dials the Temporal frontend with tracing and structured logging.
func ConnectTemporal(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func buildAccounts(cfg Config, db *gorm.DB, instruments *platformobservability.Instruments) (accountsports.Service, error) {
	logger := effectiveLogger(instruments)
	var sessions accountsports.SessionStore = accountmemory.NewSessionStore()
	if db != nil {
		sessions = accountpostgres.NewSessionStore(db)
		logger.Info("session store configured with postgres")
	}

	var identity accountsports.IdentityProvider
	if cfg.IdentityURL == "" {
		logger.Warn("IDENTITY_URL not set, using in-memory identity provider")
		identity = accountmemory.NewIdentityProvider(accountmemory.WithCodeSink(func(email, code string) {
			logger.Info("verification code issued", slog.String("email", email), slog.String("code", code))
		}))
	} else {
		httpClient, err := httpclient.New(cfg.IdentityURL, cfg.HTTPTimeout)
		if err != nil {
			return nil, fmt.Errorf("identity client: %w", err)
		}
		remote, err := accountidentity.NewClient(httpClient)
		if err != nil {
			return nil, err
		}
		identity = remote
	}

	core := accountsapp.NewService(identity, sessions, accountsapp.WithSessionTTL(cfg.SessionTTL))
	return accountobs.New(
		core,
		accountobs.WithLogger(logger),
		accountobs.WithTracer(instruments.Tracer("internal.accounts.application")),
		accountobs.WithMeter(instruments.Meter("internal.accounts.application")),
	), nil
}

func idempotencyStore(db *gorm.DB, retention time.Duration) listingsports.IdempotencyStore {
	if db == nil {
		return listingmemory.NewIdempotencyStore(listingmemory.WithRetention(retention))
	}
	return listingpostgres.NewIdempotencyStore(db)
}

func purgeSessions(ctx context.Context, accounts accountsports.Service, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := accounts.PurgeExpiredSessions(ctx)
			if err != nil {
				logger.Warn("session purge failed", slog.String("error", err.Error()))
				continue
			}
			logger.Debug("expired sessions purged", slog.Int64("count", purged))
		}
	}
}

func listingInstrumentation(instruments *platformobservability.Instruments) []listingobs.Option {
	return []listingobs.Option{
		listingobs.WithLogger(effectiveLogger(instruments)),
		listingobs.WithTracer(instruments.Tracer("internal.listings.application")),
		listingobs.WithMeter(instruments.Meter("internal.listings.application")),
	}
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.Default()
}
