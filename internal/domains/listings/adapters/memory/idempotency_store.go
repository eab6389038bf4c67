package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/pet-portal/internal/domains/listings/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// DefaultRetention is how long a reserved listing id stays replayable.
const DefaultRetention = 24 * time.Hour

// IdempotencyStore remembers which listing id each Idempotency-Key reserved.
// Keys older than the retention window are forgotten, so the map stays bounded
// in a long-running portal without a database.
type IdempotencyStore struct {
	mu        sync.Mutex
	byKey     map[string]ports.IdempotencyRecord
	retention time.Duration
	now       func() time.Time
}

type StoreOption func(*IdempotencyStore)

// WithRetention sets how long keys are kept. Non-positive values keep keys forever.
func WithRetention(retention time.Duration) StoreOption {
	return func(s *IdempotencyStore) { s.retention = retention }
}

func NewIdempotencyStore(opts ...StoreOption) *IdempotencyStore {
	s := &IdempotencyStore{byKey: map[string]ports.IdempotencyRecord{}, retention: DefaultRetention, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithClock overrides the time source for deterministic testing.
func (s *IdempotencyStore) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.live(key, s.now())
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// Save reserves record.ListingID for record.Key. A replay with the same
// fingerprint gets the first reservation back and refreshes its UpdatedAt;
// a different fingerprint yields ErrIdempotencyConflict and the stored record.
func (s *IdempotencyStore) Save(_ context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)

	if reserved, ok := s.byKey[record.Key]; ok {
		if reserved.RequestHash != record.RequestHash {
			return &reserved, ports.ErrIdempotencyConflict
		}
		reserved.UpdatedAt = now
		s.byKey[record.Key] = reserved
		return &reserved, nil
	}

	record.CreatedAt, record.UpdatedAt = now, now
	s.byKey[record.Key] = record
	return &record, nil
}

// Len reports how many keys are currently remembered.
func (s *IdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep(s.now())
	return len(s.byKey)
}

func (s *IdempotencyStore) live(key string, now time.Time) (ports.IdempotencyRecord, bool) {
	record, ok := s.byKey[key]
	if !ok || s.expired(record, now) {
		return ports.IdempotencyRecord{}, false
	}
	return record, true
}

func (s *IdempotencyStore) expired(record ports.IdempotencyRecord, now time.Time) bool {
	return s.retention > 0 && now.Sub(record.CreatedAt) >= s.retention
}

func (s *IdempotencyStore) sweep(now time.Time) {
	for key, record := range s.byKey {
		if s.expired(record, now) {
			delete(s.byKey, key)
		}
	}
}
