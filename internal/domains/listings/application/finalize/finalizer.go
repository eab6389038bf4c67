package finalize

import (
	"context"
	"errors"
	"strings"

	"github.com/Apurer/pet-portal/internal/domains/listings/application/form"
	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
	"github.com/Apurer/pet-portal/internal/domains/listings/ports"
)

var errMissingID = errors.New("listing id is required to update a listing")

// Finalizer writes a listing record once its media is in place. It performs
// exactly one backend call and never retries.
type Finalizer struct {
	gateway ports.Gateway
}

func NewFinalizer(gateway ports.Gateway) *Finalizer {
	return &Finalizer{gateway: gateway}
}

// Finalize creates or updates the listing depending on the command mode.
func (f *Finalizer) Finalize(ctx context.Context, command listingtypes.FinalizeCommand) (*listingtypes.FinalizeResult, error) {
	if f == nil || f.gateway == nil {
		return nil, errors.New("listing finalizer not configured")
	}
	listing := command.Listing.Normalized()
	if command.Mode == form.ModeEdit {
		id := strings.TrimSpace(listing.ID)
		if id == "" {
			return nil, errMissingID
		}
		if err := f.gateway.Update(ctx, id, listing); err != nil {
			return nil, err
		}
		return &listingtypes.FinalizeResult{ListingID: id, Listing: listing}, nil
	}

	created, err := f.gateway.Create(ctx, listing)
	if err != nil {
		return nil, err
	}
	if created != nil && strings.TrimSpace(created.ListingID) != "" {
		listing.ID = created.ListingID
	}
	return &listingtypes.FinalizeResult{ListingID: listing.ID, Listing: listing}, nil
}
