package ports

import (
	"context"

	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
)

// Coordinator drives a validated form submission through upload and finalization.
type Coordinator interface {
	Submit(ctx context.Context, request listingtypes.SubmitRequest) (*listingtypes.FinalizeResult, error)
}
