package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
	listingactivities "github.com/Apurer/pet-portal/internal/platform/temporal/activities/listings"
)

// RunListingFinalizationSequence runs the single finalize activity. A listing
// write is attempted once; the user retries by resubmitting the form.
func RunListingFinalizationSequence(ctx workflow.Context, command listingtypes.FinalizeCommand) (*listingtypes.FinalizeResult, error) {
	logger := workflow.GetLogger(ctx)
	listingID := command.Listing.ID
	logger.Info("listing finalization sequence started", "listingId", listingID)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}

	var result listingtypes.FinalizeResult
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, options), listingactivities.FinalizeListingActivityName, command).Get(ctx, &result)
	if err != nil {
		logger.Error("listing finalization sequence failed", "listingId", listingID, "error", err)
		return nil, err
	}
	logger.Info("listing finalization sequence persisted", "listingId", result.ListingID)
	return &result, nil
}
