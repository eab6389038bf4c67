package portalserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/pet-portal/internal/domains/listings/application/form"
	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
	listingsports "github.com/Apurer/pet-portal/internal/domains/listings/ports"
	apierrors "github.com/Apurer/pet-portal/internal/shared/errors"
)

// DefaultMaxUploadBytes bounds a multipart listing submission.
const DefaultMaxUploadBytes int64 = 20 << 20

const (
	multipartMemory  = 8 << 20
	mainImageField   = "main_image"
	galleryField     = "images"
	idempotencyKey   = "Idempotency-Key"
	createdMessage   = "Pet created successfully"
	updatedMessage   = "Pet updated successfully"
	deletedMessage   = "Pet deleted successfully"
	deleteFailedText = "Error deleting pet. Please try again."
)

var sortOrders = []string{
	listingtypes.SortName,
	listingtypes.SortAge,
	listingtypes.SortType,
	listingtypes.SortPriceAsc,
	listingtypes.SortPriceDesc,
}

var deleteErrors = newErrorResponder(deleteFailedText)

// ListingsAPI wires HTTP transport with the listing facade and the upload coordinator.
type ListingsAPI struct {
	gateway        listingsports.Gateway
	coordinator    listingsports.Coordinator
	maxUploadBytes int64
}

// NewListingsAPI creates a ListingsAPI. A non-positive maxUploadBytes selects DefaultMaxUploadBytes.
func NewListingsAPI(gateway listingsports.Gateway, coordinator listingsports.Coordinator, maxUploadBytes int64) ListingsAPI {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return ListingsAPI{gateway: gateway, coordinator: coordinator, maxUploadBytes: maxUploadBytes}
}

// ListingMutationResponse acknowledges a create or an update.
type ListingMutationResponse struct {
	Message   string         `json:"message"`
	ListingID string         `json:"pet_id"`
	Listing   domain.Listing `json:"pet"`
}

// Get /api/v1/listings
// Searches listings
func (api *ListingsAPI) ListListings(c *gin.Context) {
	filter, fields := parseListFilter(c.Request.URL.Query())
	if len(fields) > 0 {
		problems.Respond(c, apierrors.NewValidationProblem(fields).WithDetail(validationMessage))
		return
	}
	page, err := api.gateway.List(c.Request.Context(), filter)
	if err != nil {
		respondReadError(c, err)
		return
	}
	if page.Listings == nil {
		page.Listings = []domain.Listing{}
	}
	c.JSON(http.StatusOK, page)
}

// Get /api/v1/listings/:listingId
// Finds a listing by id
func (api *ListingsAPI) GetListing(c *gin.Context) {
	listing, err := api.gateway.Get(c.Request.Context(), c.Param("listingId"))
	if err != nil {
		respondReadError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// Get /api/v1/me/listings
// Lists the listings owned by the signed-in user
func (api *ListingsAPI) ListMyListings(c *gin.Context) {
	session, _ := currentSession(c)
	listings, err := api.gateway.ListByOwner(c.Request.Context(), session.User.ID)
	if err != nil {
		respondReadError(c, err)
		return
	}
	if listings == nil {
		listings = []domain.Listing{}
	}
	c.JSON(http.StatusOK, listingtypes.ListingPage{Listings: listings})
}

// Post /api/v1/listings
// Creates a listing from a multipart form with its images
func (api *ListingsAPI) CreateListing(c *gin.Context) {
	session, _ := currentSession(c)
	listingForm := form.NewCreateForm(session.User.ID)
	if !api.fillForm(c, listingForm) {
		return
	}
	result, err := api.submit(c.Request.Context(), listingForm, strings.TrimSpace(c.GetHeader(idempotencyKey)))
	if err != nil {
		respondSubmitError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ListingMutationResponse{Message: createdMessage, ListingID: result.ListingID, Listing: result.Listing})
}

// Put /api/v1/listings/:listingId
// Updates an owned listing; stored images survive unless new files are sent
func (api *ListingsAPI) UpdateListing(c *gin.Context) {
	existing, ok := api.ownedListing(c)
	if !ok {
		return
	}
	listingForm := form.NewEditForm(*existing)
	if !api.fillForm(c, listingForm) {
		return
	}
	result, err := api.submit(c.Request.Context(), listingForm, "")
	if err != nil {
		respondSubmitError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListingMutationResponse{Message: updatedMessage, ListingID: result.ListingID, Listing: result.Listing})
}

// Delete /api/v1/listings/:listingId
// Deletes an owned listing
func (api *ListingsAPI) DeleteListing(c *gin.Context) {
	existing, ok := api.ownedListing(c)
	if !ok {
		return
	}
	if err := api.gateway.Delete(c.Request.Context(), existing.ID); err != nil {
		_ = c.Error(err)
		deleteErrors.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": deletedMessage, "pet_id": existing.ID})
}

func (api *ListingsAPI) ownedListing(c *gin.Context) (*domain.Listing, bool) {
	session, _ := currentSession(c)
	listingID := strings.TrimSpace(c.Param("listingId"))
	existing, err := api.gateway.Get(c.Request.Context(), listingID)
	if err != nil {
		respondReadError(c, err)
		return nil, false
	}
	if existing.OwnerID == "" || existing.OwnerID != session.User.ID {
		problems.Respond(c, apierrors.ErrForbidden.WithDetail(notOwnerMessage))
		return nil, false
	}
	if existing.ID == "" {
		existing.ID = listingID
	}
	return existing, true
}

func (api *ListingsAPI) submit(ctx context.Context, listingForm *form.Form, key string) (*listingtypes.FinalizeResult, error) {
	var result *listingtypes.FinalizeResult
	err := listingForm.Submit(ctx, func(ctx context.Context, submission form.Submission) error {
		var err error
		result, err = api.coordinator.Submit(ctx, listingtypes.SubmitRequest{
			Submission:     submission,
			IdempotencyKey: key,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// fillForm copies the posted fields and files into the form. It responds and
// returns false when the body cannot be read.
func (api *ListingsAPI) fillForm(c *gin.Context, listingForm *form.Form) bool {
	values, files, err := api.readBody(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondSubmitError(c, err)
			return false
		}
		respondBadRequest(c, err)
		return false
	}
	applyFields(listingForm, values)

	if headers := files[mainImageField]; len(headers) > 0 {
		image, err := readImage(headers[0])
		if err != nil {
			respondBadRequest(c, err)
			return false
		}
		listingForm.SelectMainImage(image)
	}
	if headers := files[galleryField]; len(headers) > 0 {
		gallery := make([]domain.ImageFile, 0, len(headers))
		for _, header := range headers {
			image, err := readImage(header)
			if err != nil {
				respondBadRequest(c, err)
				return false
			}
			gallery = append(gallery, image)
		}
		listingForm.SelectAdditionalImages(gallery)
	}
	return true
}

func (api *ListingsAPI) readBody(c *gin.Context) (url.Values, map[string][]*multipart.FileHeader, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, api.maxUploadBytes)
	err := c.Request.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		if err := c.Request.ParseForm(); err != nil {
			return nil, nil, err
		}
		return c.Request.PostForm, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return c.Request.MultipartForm.Value, c.Request.MultipartForm.File, nil
}

// applyFields sets every known field present in values. An exact age wins
// over a posted age category, as the category is derived from it.
func applyFields(listingForm *form.Form, values url.Values) {
	hasExactAge := strings.TrimSpace(values.Get(form.FieldExactAge.Key())) != ""
	for _, field := range form.Fields() {
		raw, ok := values[field.Key()]
		if !ok || len(raw) == 0 {
			continue
		}
		if field == form.FieldAgeCategory && hasExactAge {
			continue
		}
		value := raw[0]
		if field == form.FieldDocuments {
			value = strings.Join(raw, ",")
		}
		listingForm.SetField(field, value)
	}
}

func readImage(header *multipart.FileHeader) (domain.ImageFile, error) {
	file, err := header.Open()
	if err != nil {
		return domain.ImageFile{}, fmt.Errorf("open %s: %w", header.Filename, err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return domain.ImageFile{}, fmt.Errorf("read %s: %w", header.Filename, err)
	}
	return domain.ImageFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func parseListFilter(query url.Values) (listingtypes.ListFilter, map[string]string) {
	fields := map[string]string{}
	filter := listingtypes.ListFilter{
		Type:      strings.TrimSpace(query.Get("type")),
		Age:       strings.TrimSpace(query.Get("age")),
		Sort:      strings.TrimSpace(query.Get("sort")),
		Country:   strings.TrimSpace(query.Get("country")),
		Province:  strings.TrimSpace(query.Get("province")),
		Town:      strings.TrimSpace(query.Get("town")),
		Gender:    strings.TrimSpace(query.Get("gender")),
		NextToken: strings.TrimSpace(query.Get("nextToken")),
	}
	if species, ok := domain.ParseSpecies(filter.Type); ok {
		filter.Type = string(species)
	}
	if filter.Sort != "" && !knownSort(filter.Sort) {
		fields["sort"] = "must be one of " + strings.Join(sortOrders, ", ")
	}
	for key, target := range map[string]**float64{
		"price":     &filter.Price,
		"min_price": &filter.MinPrice,
		"max_price": &filter.MaxPrice,
	} {
		raw := strings.TrimSpace(query.Get(key))
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 {
			fields[key] = "must be a non-negative number"
			continue
		}
		*target = &value
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			fields["limit"] = "must be a positive integer"
		} else {
			filter.Limit = limit
		}
	}
	return filter, fields
}

func knownSort(value string) bool {
	for _, candidate := range sortOrders {
		if candidate == value {
			return true
		}
	}
	return false
}
