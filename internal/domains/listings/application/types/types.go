package types

import (
	"github.com/Apurer/pet-portal/internal/domains/listings/application/form"
	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
)

// Sort orders understood by the listing backend.
const (
	SortName      = "name"
	SortAge       = "age"
	SortType      = "type"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// ListFilter narrows a listing search. Zero values are omitted from the query.
type ListFilter struct {
	Type      string
	Age       string
	Sort      string
	Country   string
	Province  string
	Town      string
	Gender    string
	Price     *float64
	MinPrice  *float64
	MaxPrice  *float64
	Limit     int
	NextToken string
}

// ListingPage is one page of search results.
type ListingPage struct {
	Listings  []domain.Listing `json:"pets"`
	NextToken string           `json:"nextToken,omitempty"`
}

// MainImageKey is the reserved upload-target key of the main image.
const MainImageKey = "main_image"

// UploadTargetRequest asks for one upload target per file of a listing.
type UploadTargetRequest struct {
	ListingID string   `json:"pet_id"`
	MainImage string   `json:"main_image,omitempty"`
	Filenames []string `json:"filenames"`
}

// UploadTarget is a time-limited destination plus the public reference it resolves to.
type UploadTarget struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
}

// UploadTargets maps filenames, plus MainImageKey, to their targets.
type UploadTargets map[string]UploadTarget

// CreateResult is returned by the backend after a create.
type CreateResult struct {
	ListingID string `json:"pet_id"`
	Message   string `json:"message,omitempty"`
}

// FinalizeCommand persists a listing whose media has been uploaded.
type FinalizeCommand struct {
	Mode           form.Mode
	Listing        domain.Listing
	IdempotencyKey string
}

// FinalizeResult reports the stored listing.
type FinalizeResult struct {
	ListingID string
	Listing   domain.Listing
}

// SubmitRequest is the coordinator input for one form submission.
type SubmitRequest struct {
	Submission     form.Submission
	ListingID      string
	IdempotencyKey string
}
