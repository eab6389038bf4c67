package listings

import (
	"go.temporal.io/sdk/workflow"

	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
	"github.com/Apurer/pet-portal/internal/platform/temporal/sequences"
)

const (
	// ListingFinalizationWorkflowName is the public identifier for registering the workflow.
	ListingFinalizationWorkflowName = "listings.workflows.Finalization"
	// ListingFinalizationTaskQueue is consumed by the worker that persists listings.
	ListingFinalizationTaskQueue = "LISTING_FINALIZATION"
)

type ListingFinalizationWorkflowInput struct {
	Command listingtypes.FinalizeCommand
	TraceID string
}

// ListingFinalizationWorkflow persists a listing after its media transfer completed.
func ListingFinalizationWorkflow(ctx workflow.Context, input ListingFinalizationWorkflowInput) (*listingtypes.FinalizeResult, error) {
	logger := workflow.GetLogger(ctx)
	listingID := input.Command.Listing.ID
	logger.Info("ListingFinalizationWorkflow started", withTraceID(input.TraceID, "listingId", listingID)...)
	result, err := sequences.RunListingFinalizationSequence(ctx, input.Command)
	if err != nil {
		logger.Error("ListingFinalizationWorkflow failed", withTraceID(input.TraceID, "listingId", listingID, "error", err)...)
		return nil, err
	}
	logger.Info("ListingFinalizationWorkflow completed", withTraceID(input.TraceID, "listingId", result.ListingID)...)
	return result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
