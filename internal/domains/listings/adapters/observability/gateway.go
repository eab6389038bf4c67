package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
	"github.com/Apurer/pet-portal/internal/domains/listings/ports"
)

var _ ports.Gateway = (*Gateway)(nil)

// Gateway decorates the listing facade with tracing, logging and metrics.
type Gateway struct {
	inner ports.Gateway
	instrumentation
}

func NewGateway(inner ports.Gateway, opts ...Option) ports.Gateway {
	return &Gateway{inner: inner, instrumentation: newInstrumentation(opts)}
}

func (g *Gateway) List(ctx context.Context, filter listingtypes.ListFilter) (*listingtypes.ListingPage, error) {
	ctx, span := g.startSpan(ctx, "Gateway.List",
		attribute.String("listing.filter.type", filter.Type),
		attribute.String("listing.filter.sort", filter.Sort),
	)
	defer span.End()

	page, err := g.inner.List(ctx, filter)
	if err != nil {
		return nil, g.backendError(ctx, span, err, "failed to list listings")
	}
	span.SetAttributes(attribute.Int("listing.result.count", len(page.Listings)))
	g.logInfo(ctx, "listed listings", slog.Int("count", len(page.Listings)))
	return page, nil
}

func (g *Gateway) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	ctx, span := g.startSpan(ctx, "Gateway.Get", attribute.String("listing.id", listingID))
	defer span.End()

	listing, err := g.inner.Get(ctx, listingID)
	if err != nil {
		return nil, g.backendError(ctx, span, err, "failed to get listing", slog.String("listing.id", listingID))
	}
	return listing, nil
}

func (g *Gateway) ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	ctx, span := g.startSpan(ctx, "Gateway.ListByOwner", attribute.String("listing.owner_id", ownerID))
	defer span.End()

	listings, err := g.inner.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, g.backendError(ctx, span, err, "failed to list owner listings", slog.String("listing.owner_id", ownerID))
	}
	span.SetAttributes(attribute.Int("listing.result.count", len(listings)))
	return listings, nil
}

func (g *Gateway) Create(ctx context.Context, listing domain.Listing) (*listingtypes.CreateResult, error) {
	ctx, span := g.startSpan(ctx, "Gateway.Create", attribute.String("listing.id", listing.ID))
	defer span.End()

	g.logInfo(ctx, "creating listing", slog.String("listing.id", listing.ID), slog.String("pet_type", string(listing.Species)))
	result, err := g.inner.Create(ctx, listing)
	if err != nil {
		return nil, g.backendError(ctx, span, err, "failed to create listing", slog.String("listing.id", listing.ID))
	}
	return result, nil
}

func (g *Gateway) Update(ctx context.Context, listingID string, listing domain.Listing) error {
	ctx, span := g.startSpan(ctx, "Gateway.Update", attribute.String("listing.id", listingID))
	defer span.End()

	g.logInfo(ctx, "updating listing", slog.String("listing.id", listingID))
	if err := g.inner.Update(ctx, listingID, listing); err != nil {
		return g.backendError(ctx, span, err, "failed to update listing", slog.String("listing.id", listingID))
	}
	return nil
}

func (g *Gateway) Delete(ctx context.Context, listingID string) error {
	ctx, span := g.startSpan(ctx, "Gateway.Delete", attribute.String("listing.id", listingID))
	defer span.End()

	if err := g.inner.Delete(ctx, listingID); err != nil {
		return g.backendError(ctx, span, err, "failed to delete listing", slog.String("listing.id", listingID))
	}
	addCounter(ctx, g.metrics.deleted, 1)
	g.logInfo(ctx, "listing deleted", slog.String("listing.id", listingID))
	return nil
}

func (g *Gateway) GenerateUploadTargets(ctx context.Context, request listingtypes.UploadTargetRequest) (listingtypes.UploadTargets, error) {
	ctx, span := g.startSpan(ctx, "Gateway.GenerateUploadTargets",
		attribute.String("listing.id", request.ListingID),
		attribute.Int("listing.upload.files", len(request.Filenames)),
	)
	defer span.End()

	targets, err := g.inner.GenerateUploadTargets(ctx, request)
	if err != nil {
		return nil, g.backendError(ctx, span, err, "failed to generate upload targets", slog.String("listing.id", request.ListingID))
	}
	return targets, nil
}

func (g *Gateway) backendError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	addCounter(ctx, g.metrics.backendErrs, 1)
	return g.handleError(ctx, span, err, msg, attrs...)
}
