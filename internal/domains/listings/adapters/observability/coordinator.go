package observability

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Apurer/pet-portal/internal/domains/listings/application"
	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
	"github.com/Apurer/pet-portal/internal/domains/listings/ports"
)

var _ ports.Coordinator = (*Coordinator)(nil)

// Coordinator records each submission attempt. Failure causes are logged
// here because the error returned to callers stays generic.
type Coordinator struct {
	inner ports.Coordinator
	instrumentation
}

func NewCoordinator(inner ports.Coordinator, opts ...Option) ports.Coordinator {
	return &Coordinator{inner: inner, instrumentation: newInstrumentation(opts)}
}

func (c *Coordinator) Submit(ctx context.Context, request listingtypes.SubmitRequest) (*listingtypes.FinalizeResult, error) {
	submission := request.Submission
	mode := string(submission.Mode)
	ctx, span := c.startSpan(ctx, "Coordinator.Submit",
		attribute.String("listing.mode", mode),
		attribute.Bool("listing.main_image.selected", submission.MainImage != nil),
		attribute.Int("listing.additional_images", len(submission.AdditionalImages)),
	)
	defer span.End()

	c.logInfo(ctx, "submitting listing", slog.String("mode", mode), slog.Int("additional_images", len(submission.AdditionalImages)))
	result, err := c.inner.Submit(ctx, request)
	if err != nil {
		attrs := []slog.Attr{slog.String("mode", mode)}
		var submitErr *application.SubmissionError
		if errors.As(err, &submitErr) {
			attrs = append(attrs,
				slog.String("stage", string(submitErr.Stage)),
				slog.String("listing.id", submitErr.ListingID),
				slog.Any("cause", submitErr.Cause()),
			)
			span.SetAttributes(attribute.String("listing.failed_stage", string(submitErr.Stage)))
			addCounter(ctx, c.metrics.failures, 1, attribute.String("stage", string(submitErr.Stage)))
		}
		return nil, c.handleError(ctx, span, err, "listing submission failed", attrs...)
	}
	addCounter(ctx, c.metrics.submissions, 1, attribute.String("mode", mode))
	span.SetAttributes(attribute.String("listing.id", result.ListingID))
	c.logInfo(ctx, "listing submitted", slog.String("listing.id", result.ListingID), slog.String("mode", mode))
	return result, nil
}
