package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/pet-portal/internal/domains/listings/application/finalize"
	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
	"github.com/Apurer/pet-portal/internal/domains/listings/ports"
	listingworkflows "github.com/Apurer/pet-portal/internal/platform/temporal/workflows/listings"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalListingWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineListingWorkflows)(nil)
)

// TemporalListingWorkflows runs listing finalization on a Temporal cluster.
type TemporalListingWorkflows struct {
	client    client.Client
	taskQueue string
}

func NewTemporalListingWorkflows(c client.Client) *TemporalListingWorkflows {
	return &TemporalListingWorkflows{client: c, taskQueue: listingworkflows.ListingFinalizationTaskQueue}
}

// FinalizeListing starts the finalization workflow and waits for its result.
// A replayed idempotency key attaches to the run already started for it.
func (o *TemporalListingWorkflows) FinalizeListing(ctx context.Context, command listingtypes.FinalizeCommand) (*listingtypes.FinalizeResult, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal listing workflows not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildFinalizationWorkflowID(command, traceComponent)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		listingworkflows.ListingFinalizationWorkflow,
		listingworkflows.ListingFinalizationWorkflowInput{Command: command, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) && strings.TrimSpace(command.IdempotencyKey) != "" {
			existingRun := o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
			var result listingtypes.FinalizeResult
			if err := existingRun.Get(ctx, &result); err != nil {
				return nil, err
			}
			return &result, nil
		}
		return nil, err
	}
	var result listingtypes.FinalizeResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// InlineListingWorkflows finalizes synchronously, for tests or when Temporal is disabled.
type InlineListingWorkflows struct {
	finalizer *finalize.Finalizer
}

func NewInlineListingWorkflows(gateway ports.Gateway) *InlineListingWorkflows {
	return &InlineListingWorkflows{finalizer: finalize.NewFinalizer(gateway)}
}

func (o *InlineListingWorkflows) FinalizeListing(ctx context.Context, command listingtypes.FinalizeCommand) (*listingtypes.FinalizeResult, error) {
	if o == nil || o.finalizer == nil {
		return nil, errors.New("inline listing workflows not configured")
	}
	return o.finalizer.Finalize(ctx, command)
}

func buildFinalizationWorkflowID(command listingtypes.FinalizeCommand, traceComponent string) string {
	if key := strings.TrimSpace(command.IdempotencyKey); key != "" {
		return fmt.Sprintf("listing-finalize-idem-%s", hashIdempotencyKey(key))
	}
	idComponent := strings.TrimSpace(command.Listing.ID)
	if idComponent == "" {
		idComponent = fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("listing-finalize-%s-%s-%s", command.Mode, idComponent, traceComponent)
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
