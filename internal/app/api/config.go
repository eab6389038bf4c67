package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"

	portalserver "github.com/Apurer/pet-portal/go"
	accountsapp "github.com/Apurer/pet-portal/internal/domains/accounts/application"
	listingmemory "github.com/Apurer/pet-portal/internal/domains/listings/adapters/memory"
)

const defaultHTTPTimeout = 30 * time.Second

// Config carries environment-driven settings for the portal process.
type Config struct {
	Port                       string
	PostgresDSN                string
	TemporalAddress            string
	TemporalNamespace          string
	TemporalDisabled           bool
	BackendURL                 string
	UploadServiceURL           string
	IdentityURL                string
	HTTPTimeout                time.Duration
	SessionTTL                 time.Duration
	SessionCookieSecure        bool
	MaxUploadBytes             int64
	SessionPurgeIntervalMinute int
	IdempotencyRetention       time.Duration
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:                 envDefault("PORT", "8080"),
		PostgresDSN:          strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		TemporalAddress:      envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:    envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:     isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		BackendURL:           strings.TrimSpace(os.Getenv("BACKEND_URL")),
		UploadServiceURL:     strings.TrimSpace(os.Getenv("UPLOAD_SERVICE_URL")),
		IdentityURL:          strings.TrimSpace(os.Getenv("IDENTITY_URL")),
		HTTPTimeout:          defaultHTTPTimeout,
		SessionTTL:           accountsapp.DefaultSessionTTL,
		SessionCookieSecure:  isTruthy(os.Getenv("SESSION_COOKIE_SECURE")),
		MaxUploadBytes:       portalserver.DefaultMaxUploadBytes,
		IdempotencyRetention: listingmemory.DefaultRetention,
	}
	if cfg.BackendURL == "" {
		return Config{}, fmt.Errorf("BACKEND_URL is required")
	}
	if cfg.UploadServiceURL == "" {
		cfg.UploadServiceURL = cfg.BackendURL
	}
	if raw := strings.TrimSpace(os.Getenv("PORTAL_HTTP_TIMEOUT")); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			return Config{}, fmt.Errorf("PORTAL_HTTP_TIMEOUT must be a positive duration")
		}
		cfg.HTTPTimeout = timeout
	}
	if raw := strings.TrimSpace(os.Getenv("SESSION_TTL_HOURS")); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return Config{}, fmt.Errorf("SESSION_TTL_HOURS must be a positive integer")
		}
		cfg.SessionTTL = time.Duration(hours) * time.Hour
	}
	if raw := strings.TrimSpace(os.Getenv("MAX_UPLOAD_MB")); raw != "" {
		mb, err := strconv.Atoi(raw)
		if err != nil || mb <= 0 {
			return Config{}, fmt.Errorf("MAX_UPLOAD_MB must be a positive integer")
		}
		cfg.MaxUploadBytes = int64(mb) << 20
	}
	if raw := strings.TrimSpace(os.Getenv("SESSION_PURGE_INTERVAL_MINUTES")); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			return Config{}, fmt.Errorf("SESSION_PURGE_INTERVAL_MINUTES must be a positive integer")
		}
		cfg.SessionPurgeIntervalMinute = minutes
	}
	if raw := strings.TrimSpace(os.Getenv("IDEMPOTENCY_RETENTION_HOURS")); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return Config{}, fmt.Errorf("IDEMPOTENCY_RETENTION_HOURS must be a positive integer")
		}
		cfg.IdempotencyRetention = time.Duration(hours) * time.Hour
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
