package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/pet-portal/internal/domains/accounts/domain"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists portal sessions keyed by their opaque token.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) error
	// Get returns ErrSessionNotFound for unknown tokens.
	Get(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
	// PurgeExpired removes sessions that expired at or before now and reports how many.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
