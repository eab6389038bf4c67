// Package devbackend is a self-contained implementation of the listing
// backend contract used for local development and provider verification.
package devbackend

import (
	"context"
	"errors"

	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
	"github.com/Apurer/pet-portal/internal/shared/projection"
)

// ErrNotFound is returned when a listing or an object does not exist.
var ErrNotFound = errors.New("not found")

// Record is a stored listing with its persistence timestamps.
type Record = projection.Projection[domain.Listing]

// ListingStore persists listings keyed by pet_id.
type ListingStore interface {
	// All returns every listing in creation order.
	All(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id string) (Record, error)
	// Put inserts or replaces the listing, keeping the original creation time.
	Put(ctx context.Context, listing domain.Listing) (Record, error)
	Delete(ctx context.Context, id string) error
}

// Object is an uploaded file.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// ObjectStore keeps uploaded files keyed by object key.
type ObjectStore interface {
	PutObject(ctx context.Context, object Object) error
	GetObject(ctx context.Context, key string) (*Object, error)
}
