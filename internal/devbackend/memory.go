package devbackend

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
	"github.com/Apurer/pet-portal/internal/shared/projection"
)

// MemoryListingStore keeps listings in process memory.
type MemoryListingStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

func NewMemoryListingStore() *MemoryListingStore {
	return &MemoryListingStore{records: map[string]Record{}, now: time.Now}
}

// WithClock overrides the clock used for timestamps.
func (s *MemoryListingStore) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *MemoryListingStore) All(context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, cloneRecord(rec))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return projection.StoredBefore(out[i], out[j], func(a, b domain.Listing) bool { return a.ID < b.ID })
	})
	return out, nil
}

func (s *MemoryListingStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *MemoryListingStore) Put(_ context.Context, listing domain.Listing) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	rec := projection.New(listing.Clone(), now)
	if existing, ok := s.records[listing.ID]; ok {
		rec = existing.Revise(listing.Clone(), now)
	}
	s.records[listing.ID] = rec
	return cloneRecord(rec), nil
}

func (s *MemoryListingStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func cloneRecord(rec Record) Record {
	rec.Entity = rec.Entity.Clone()
	return rec
}

// MemoryObjectStore keeps uploaded files in process memory.
type MemoryObjectStore struct {
	mu      sync.RWMutex
	objects map[string]Object
}

func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{objects: map[string]Object{}}
}

func (s *MemoryObjectStore) PutObject(_ context.Context, object Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	object.Data = append([]byte{}, object.Data...)
	s.objects[object.Key] = object
	return nil
}

func (s *MemoryObjectStore) GetObject(_ context.Context, key string) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	object, ok := s.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	object.Data = append([]byte{}, object.Data...)
	return &object, nil
}

var (
	_ ListingStore = (*MemoryListingStore)(nil)
	_ ObjectStore  = (*MemoryObjectStore)(nil)
)
