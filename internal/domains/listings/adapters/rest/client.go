package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/oapi-codegen/runtime"

	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
	"github.com/Apurer/pet-portal/internal/domains/listings/ports"
	"github.com/Apurer/pet-portal/internal/platform/httpclient"
)

var _ ports.Gateway = (*Client)(nil)

var ErrMissingID = errors.New("listing id is required")

// Client talks to the listing REST backend and the upload-target service.
// Backend failures are returned as *httpclient.HTTPError without retries.
type Client struct {
	backend *httpclient.Client
	uploads *httpclient.Client
}

type Option func(*Client)

// WithUploadClient points upload-target generation at a separate service.
func WithUploadClient(uploads *httpclient.Client) Option {
	return func(c *Client) {
		if uploads != nil {
			c.uploads = uploads
		}
	}
}

func NewClient(backend *httpclient.Client, opts ...Option) (*Client, error) {
	if backend == nil {
		return nil, errors.New("listing backend client is required")
	}
	c := &Client{backend: backend, uploads: backend}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func (c *Client) List(ctx context.Context, filter listingtypes.ListFilter) (*listingtypes.ListingPage, error) {
	query, err := listQuery(filter)
	if err != nil {
		return nil, err
	}
	target := "/pets"
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}
	var page listingtypes.ListingPage
	if err := c.backend.DoJSON(ctx, http.MethodGet, target, nil, nil, &page); err != nil {
		return nil, err
	}
	if page.Listings == nil {
		page.Listings = []domain.Listing{}
	}
	return &page, nil
}

func (c *Client) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	target, err := petPath("/pets/", "listingId", listingID)
	if err != nil {
		return nil, err
	}
	var listing domain.Listing
	if err := c.backend.DoJSON(ctx, http.MethodGet, target, nil, nil, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

func (c *Client) ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	target, err := petPath("/pets/owner/", "ownerId", ownerID)
	if err != nil {
		return nil, err
	}
	listings := []domain.Listing{}
	if err := c.backend.DoJSON(ctx, http.MethodGet, target, nil, nil, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// Create posts the listing with its price normalized; other fields are sent untouched.
func (c *Client) Create(ctx context.Context, listing domain.Listing) (*listingtypes.CreateResult, error) {
	var result listingtypes.CreateResult
	if err := c.backend.DoJSON(ctx, http.MethodPost, "/pets", nil, listing.Normalized(), &result); err != nil {
		return nil, err
	}
	if result.ListingID == "" {
		result.ListingID = listing.ID
	}
	return &result, nil
}

func (c *Client) Update(ctx context.Context, listingID string, listing domain.Listing) error {
	target, err := petPath("/pets/", "listingId", listingID)
	if err != nil {
		return err
	}
	return c.backend.DoJSON(ctx, http.MethodPut, target, nil, listing.Normalized(), nil)
}

func (c *Client) Delete(ctx context.Context, listingID string) error {
	target, err := petPath("/pets/", "listingId", listingID)
	if err != nil {
		return err
	}
	return c.backend.DoJSON(ctx, http.MethodDelete, target, nil, nil, nil)
}

func (c *Client) GenerateUploadTargets(ctx context.Context, request listingtypes.UploadTargetRequest) (listingtypes.UploadTargets, error) {
	if request.Filenames == nil {
		request.Filenames = []string{}
	}
	targets := listingtypes.UploadTargets{}
	if err := c.uploads.DoJSON(ctx, http.MethodPost, "/generate-upload-url", nil, request, &targets); err != nil {
		return nil, err
	}
	return targets, nil
}

func petPath(prefix, name, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrMissingID
	}
	styled, err := runtime.StyleParamWithLocation("simple", false, name, runtime.ParamLocationPath, id)
	if err != nil {
		return "", fmt.Errorf("style %s: %w", name, err)
	}
	return prefix + styled, nil
}

func listQuery(filter listingtypes.ListFilter) (url.Values, error) {
	values := url.Values{}
	add := func(name string, value any) error {
		fragment, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
		if err != nil {
			return fmt.Errorf("style %s: %w", name, err)
		}
		parsed, err := url.ParseQuery(fragment)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		for k, vs := range parsed {
			for _, v := range vs {
				values.Add(k, v)
			}
		}
		return nil
	}

	for _, param := range []struct{ name, value string }{
		{"type", filter.Type},
		{"age", filter.Age},
		{"sort", filter.Sort},
		{"country", filter.Country},
		{"province", filter.Province},
		{"town", filter.Town},
		{"gender", filter.Gender},
		{"nextToken", filter.NextToken},
	} {
		if strings.TrimSpace(param.value) == "" {
			continue
		}
		if err := add(param.name, strings.TrimSpace(param.value)); err != nil {
			return nil, err
		}
	}
	for _, param := range []struct {
		name  string
		value *float64
	}{
		{"price", filter.Price},
		{"min_price", filter.MinPrice},
		{"max_price", filter.MaxPrice},
	} {
		if param.value == nil {
			continue
		}
		if err := add(param.name, strconv.FormatFloat(*param.value, 'f', -1, 64)); err != nil {
			return nil, err
		}
	}
	if filter.Limit > 0 {
		if err := add("limit", filter.Limit); err != nil {
			return nil, err
		}
	}
	return values, nil
}
