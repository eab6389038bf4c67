package listings

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
)

// FinalizeListingActivityName persists a listing whose images are already uploaded.
const FinalizeListingActivityName = "listings.activities.FinalizeListing"

// ListingFinalizer is the application step the activity delegates to.
type ListingFinalizer interface {
	Finalize(ctx context.Context, command listingtypes.FinalizeCommand) (*listingtypes.FinalizeResult, error)
}

// Activities groups activities that operate on listings.
type Activities struct {
	finalizer ListingFinalizer
}

func NewActivities(finalizer ListingFinalizer) *Activities {
	return &Activities{finalizer: finalizer}
}

// FinalizeListing writes the listing record through the backend facade.
func (a *Activities) FinalizeListing(ctx context.Context, command listingtypes.FinalizeCommand) (*listingtypes.FinalizeResult, error) {
	logger := activity.GetLogger(ctx)
	listingID := command.Listing.ID
	if a == nil || a.finalizer == nil {
		logger.Error("finalize listing activity not initialized", "listingId", listingID)
		return nil, errors.New("finalize listing activity not initialized")
	}
	logger.Info("FinalizeListing activity started", "listingId", listingID, "mode", string(command.Mode))
	result, err := a.finalizer.Finalize(ctx, command)
	if err != nil {
		logger.Error("FinalizeListing activity failed", "listingId", listingID, "error", err)
		return nil, err
	}
	logger.Info("FinalizeListing activity completed", "listingId", result.ListingID)
	return result, nil
}
