package ports

import (
	"context"

	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
)

// Gateway is the listing service facade over the backend of record.
// Implementations return backend failures unchanged and never retry.
type Gateway interface {
	List(ctx context.Context, filter listingtypes.ListFilter) (*listingtypes.ListingPage, error)
	Get(ctx context.Context, listingID string) (*domain.Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error)
	Create(ctx context.Context, listing domain.Listing) (*listingtypes.CreateResult, error)
	Update(ctx context.Context, listingID string, listing domain.Listing) error
	Delete(ctx context.Context, listingID string) error
	GenerateUploadTargets(ctx context.Context, request listingtypes.UploadTargetRequest) (listingtypes.UploadTargets, error)
}
