package ports

import (
	"context"

	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
)

// WorkflowOrchestrator persists a listing after its media transfer succeeded.
type WorkflowOrchestrator interface {
	FinalizeListing(ctx context.Context, command listingtypes.FinalizeCommand) (*listingtypes.FinalizeResult, error)
}
