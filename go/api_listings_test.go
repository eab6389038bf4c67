package portalserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	accountmemory "github.com/Apurer/pet-portal/internal/domains/accounts/adapters/memory"
	accountsapp "github.com/Apurer/pet-portal/internal/domains/accounts/application"
	accountsdomain "github.com/Apurer/pet-portal/internal/domains/accounts/domain"
	accountsports "github.com/Apurer/pet-portal/internal/domains/accounts/ports"
	listingmemory "github.com/Apurer/pet-portal/internal/domains/listings/adapters/memory"
	listingworkflows "github.com/Apurer/pet-portal/internal/domains/listings/adapters/workflows"
	listingsapp "github.com/Apurer/pet-portal/internal/domains/listings/application"
	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
	"github.com/Apurer/pet-portal/internal/platform/httpclient"
	apierrors "github.com/Apurer/pet-portal/internal/shared/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGateway struct {
	mu       sync.Mutex
	listings map[string]domain.Listing
	listErr  error
	deleted  []string
}

func newStubGateway(seed ...domain.Listing) *stubGateway {
	g := &stubGateway{listings: map[string]domain.Listing{}}
	for _, listing := range seed {
		g.listings[listing.ID] = listing
	}
	return g
}

func (g *stubGateway) sorted() []domain.Listing {
	out := make([]domain.Listing, 0, len(g.listings))
	for _, listing := range g.listings {
		out = append(out, listing.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (g *stubGateway) List(context.Context, listingtypes.ListFilter) (*listingtypes.ListingPage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	return &listingtypes.ListingPage{Listings: g.sorted()}, nil
}

func (g *stubGateway) Get(_ context.Context, id string) (*domain.Listing, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	listing, ok := g.listings[id]
	if !ok {
		return nil, &httpclient.HTTPError{StatusCode: http.StatusNotFound, Body: `{"error":"Pet not found"}`}
	}
	clone := listing.Clone()
	return &clone, nil
}

func (g *stubGateway) ListByOwner(_ context.Context, ownerID string) ([]domain.Listing, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []domain.Listing
	for _, listing := range g.sorted() {
		if listing.OwnerID == ownerID {
			out = append(out, listing)
		}
	}
	return out, nil
}

func (g *stubGateway) Create(_ context.Context, listing domain.Listing) (*listingtypes.CreateResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listings[listing.ID] = listing.Clone()
	return &listingtypes.CreateResult{ListingID: listing.ID, Message: createdMessage}, nil
}

func (g *stubGateway) Update(_ context.Context, id string, listing domain.Listing) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listings[id] = listing.Clone()
	return nil
}

func (g *stubGateway) Delete(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.listings, id)
	g.deleted = append(g.deleted, id)
	return nil
}

func (g *stubGateway) GenerateUploadTargets(_ context.Context, request listingtypes.UploadTargetRequest) (listingtypes.UploadTargets, error) {
	targets := listingtypes.UploadTargets{}
	add := func(key, name string) {
		objectKey := fmt.Sprintf("pet-profiles/%s/%s", request.ListingID, name)
		targets[key] = listingtypes.UploadTarget{
			UploadURL: "https://uploads.test/" + objectKey,
			FileURL:   "https://files.test/" + objectKey,
		}
	}
	if request.MainImage != "" {
		add(listingtypes.MainImageKey, request.MainImage)
	}
	for _, name := range request.Filenames {
		add(name, name)
	}
	return targets, nil
}

func (g *stubGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.listings)
}

type stubUploader struct {
	mu   sync.Mutex
	puts []string
	err  error
}

func (u *stubUploader) Put(_ context.Context, uploadURL string, _ domain.ImageFile) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return u.err
	}
	u.puts = append(u.puts, uploadURL)
	return nil
}

type codeBox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (b *codeBox) sink(email, code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.codes[email] = code
}

func (b *codeBox) last(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.codes[email]
}

type portalHarness struct {
	router   *gin.Engine
	gateway  *stubGateway
	uploader *stubUploader
	accounts *accountsapp.Service
	codes    *codeBox
}

func newPortalHarness(t *testing.T, seed ...domain.Listing) *portalHarness {
	t.Helper()
	gateway := newStubGateway(seed...)
	uploader := &stubUploader{}
	var ids atomic.Int64
	coordinator := listingsapp.NewCoordinator(
		gateway,
		uploader,
		listingworkflows.NewInlineListingWorkflows(gateway),
		listingsapp.WithIDGenerator(func() string { return fmt.Sprintf("listing-%d", ids.Add(1)) }),
		listingsapp.WithIdempotencyStore(listingmemory.NewIdempotencyStore()),
	)
	codes := &codeBox{codes: map[string]string{}}
	identity := accountmemory.NewIdentityProvider(
		accountmemory.WithBcryptCost(bcrypt.MinCost),
		accountmemory.WithCodeSink(codes.sink),
	)
	accounts := accountsapp.NewService(identity, accountmemory.NewSessionStore())
	cookie := SessionCookie{}
	router := NewRouter(ApiHandleFunctions{
		PortalAPI:   NewPortalAPI(gateway),
		ListingsAPI: NewListingsAPI(gateway, coordinator, 1<<20),
		AccountsAPI: NewAccountsAPI(accounts, cookie),
	}, SessionMiddleware(accounts, cookie))
	return &portalHarness{router: router, gateway: gateway, uploader: uploader, accounts: accounts, codes: codes}
}

// signIn registers a confirmed user and returns its session.
func (h *portalHarness) signIn(t *testing.T, email string) *accountsdomain.Session {
	t.Helper()
	ctx := context.Background()
	_, err := h.accounts.SignUp(ctx, accountsports.SignUpInput{Email: email, Password: "correct-horse", GivenName: "Ann"})
	require.NoError(t, err)
	require.NoError(t, h.accounts.ConfirmSignUp(ctx, email, h.codes.last(email)))
	session, err := h.accounts.SignIn(ctx, email, "correct-horse")
	require.NoError(t, err)
	return session
}

func (h *portalHarness) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

type upload struct {
	field       string
	name        string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for _, file := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.name))
		header.Set("Content-Type", file.contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(file.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func listingFields() map[string]string {
	return map[string]string{
		"pet_name":      "Rex",
		"pet_type":      "dog",
		"exact_age":     "1.5",
		"country":       "Canada",
		"province":      "Ontario",
		"town":          "Toronto",
		"price":         "250",
		"contact_name":  "Ann",
		"contact_phone": "555-0100",
		"isVaccinated":  "true",
	}
}

func jpeg(field, name string) upload {
	return upload{field: field, name: name, contentType: "image/jpeg", data: []byte("jpeg-bytes-" + name)}
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) apierrors.ProblemDetail {
	t.Helper()
	require.Equal(t, apierrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	var problem apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func TestGetReference(t *testing.T) {
	h := newPortalHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/reference", nil), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload ReferenceData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, []string{"Canada", "United States"}, payload.Countries)
	require.Contains(t, payload.Provinces["Canada"], "Ontario")
	require.Len(t, payload.PetTypes, 5)
	require.Contains(t, payload.SortOrders, listingtypes.SortPriceDesc)
}

func TestGetHome_CountsAndFeatures(t *testing.T) {
	h := newPortalHarness(t,
		domain.Listing{ID: "a", Species: domain.SpeciesDog},
		domain.Listing{ID: "b", Species: domain.SpeciesDog},
		domain.Listing{ID: "c", Species: domain.SpeciesCat},
		domain.Listing{ID: "d", Species: domain.SpeciesDog},
		domain.Listing{ID: "e", Species: domain.SpeciesBird},
	)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/home", nil), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary HomeSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Equal(t, 3, summary.Stats[domain.SpeciesDog])
	require.Equal(t, 1, summary.Stats[domain.SpeciesCat])
	require.Equal(t, 0, summary.Stats[domain.SpeciesRabbit])
	require.Len(t, summary.Featured, featuredCount)
	require.Equal(t, "a", summary.Featured[0].ID)
}

func TestListListings_RejectsBadFilters(t *testing.T) {
	h := newPortalHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/listings?sort=random&max_price=cheap", nil), "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	problem := decodeProblem(t, rec)
	fields, ok := problem.Extensions["fields"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, fields, "sort")
	require.Contains(t, fields, "max_price")
}

func TestListListings_BackendFailureIsGeneric(t *testing.T) {
	h := newPortalHarness(t)
	h.gateway.listErr = &httpclient.HTTPError{StatusCode: http.StatusInternalServerError, Body: "db exploded"}

	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/listings?type=dog", nil), "")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	problem := decodeProblem(t, rec)
	require.Equal(t, loadFailedMessage, problem.Detail)
	require.NotContains(t, rec.Body.String(), "db exploded")
}

func TestGetListing_NotFoundPassesThrough(t *testing.T) {
	h := newPortalHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/listings/missing", nil), "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, notFoundMessage, decodeProblem(t, rec).Detail)
}

func TestCreateListing_RequiresSession(t *testing.T) {
	h := newPortalHarness(t)
	req := multipartRequest(t, http.MethodPost, "/api/v1/listings", listingFields(), jpeg("main_image", "rex.jpg"))
	rec := h.do(req, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	problem := decodeProblem(t, rec)
	require.Equal(t, "/login", problem.Extensions["redirect"])
	require.Equal(t, accountsdomain.SignInRequiredMessage, problem.Extensions["message"])
	require.Zero(t, h.gateway.count())
}

func TestCreateListing_UploadsThenPersists(t *testing.T) {
	h := newPortalHarness(t)
	session := h.signIn(t, "ann@example.com")

	req := multipartRequest(t, http.MethodPost, "/api/v1/listings", listingFields(),
		jpeg("main_image", "rex.jpg"), jpeg("images", "a.jpg"), jpeg("images", "b.jpg"))
	rec := h.do(req, session.Token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var payload ListingMutationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, createdMessage, payload.Message)
	require.Equal(t, "listing-1", payload.ListingID)

	stored, err := h.gateway.Get(context.Background(), "listing-1")
	require.NoError(t, err)
	require.Equal(t, session.User.ID, stored.OwnerID)
	require.Equal(t, domain.SpeciesDog, stored.Species)
	require.Equal(t, domain.AgeYoung, stored.AgeCategory)
	require.True(t, stored.Vaccinated)
	require.Equal(t, "https://files.test/pet-profiles/listing-1/rex.jpg", stored.MainImageURL)
	require.Equal(t, []string{
		"https://files.test/pet-profiles/listing-1/a.jpg",
		"https://files.test/pet-profiles/listing-1/b.jpg",
	}, stored.Images)
	require.Len(t, h.uploader.puts, 3)
}

func TestCreateListing_ValidationErrors(t *testing.T) {
	h := newPortalHarness(t)
	session := h.signIn(t, "ann@example.com")

	fields := listingFields()
	delete(fields, "pet_name")
	fields["province"] = "Texas"
	rec := h.do(multipartRequest(t, http.MethodPost, "/api/v1/listings", fields), session.Token)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	problem := decodeProblem(t, rec)
	require.Equal(t, validationMessage, problem.Detail)
	problemFields, ok := problem.Extensions["fields"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, problemFields, "pet_name")
	require.Contains(t, problemFields, "province")
	require.Contains(t, problemFields, "main_image")
	require.Empty(t, h.uploader.puts)
	require.Zero(t, h.gateway.count())
}

func TestCreateListing_DuplicateFilenamesRejected(t *testing.T) {
	h := newPortalHarness(t)
	session := h.signIn(t, "ann@example.com")

	req := multipartRequest(t, http.MethodPost, "/api/v1/listings", listingFields(),
		jpeg("main_image", "rex.jpg"), jpeg("images", "rex.jpg"))
	rec := h.do(req, session.Token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, h.uploader.puts)
}

func TestCreateListing_TransferFailureIsGeneric(t *testing.T) {
	h := newPortalHarness(t)
	session := h.signIn(t, "ann@example.com")
	h.uploader.err = errors.New("storage said 403 with secret detail")

	req := multipartRequest(t, http.MethodPost, "/api/v1/listings", listingFields(), jpeg("main_image", "rex.jpg"))
	rec := h.do(req, session.Token)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, submitFailedMessage, decodeProblem(t, rec).Detail)
	require.NotContains(t, rec.Body.String(), "secret")
	require.Zero(t, h.gateway.count())
}

func TestCreateListing_TooLarge(t *testing.T) {
	h := newPortalHarness(t)
	session := h.signIn(t, "ann@example.com")

	big := upload{field: "main_image", name: "huge.jpg", contentType: "image/jpeg", data: bytes.Repeat([]byte("x"), 2<<20)}
	rec := h.do(multipartRequest(t, http.MethodPost, "/api/v1/listings", listingFields(), big), session.Token)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Zero(t, h.gateway.count())
}

func TestCreateListing_IdempotencyKey(t *testing.T) {
	h := newPortalHarness(t)
	session := h.signIn(t, "ann@example.com")

	send := func(fields map[string]string) *httptest.ResponseRecorder {
		req := multipartRequest(t, http.MethodPost, "/api/v1/listings", fields, jpeg("main_image", "rex.jpg"))
		req.Header.Set(idempotencyKey, "key-1")
		return h.do(req, session.Token)
	}

	first := send(listingFields())
	require.Equal(t, http.StatusCreated, first.Code)
	retry := send(listingFields())
	require.Equal(t, http.StatusCreated, retry.Code)
	require.Equal(t, 1, h.gateway.count())

	changed := listingFields()
	changed["pet_name"] = "Max"
	conflict := send(changed)
	require.Equal(t, http.StatusConflict, conflict.Code)
	require.Equal(t, conflictMessage, decodeProblem(t, conflict).Detail)
}

func TestUpdateListing_KeepsStoredImages(t *testing.T) {
	h := newPortalHarness(t)
	session := h.signIn(t, "ann@example.com")
	h.gateway.listings["pet-9"] = domain.Listing{
		ID: "pet-9", Name: "Rex", Species: domain.SpeciesDog, AgeCategory: domain.AgeAdult,
		Country: "Canada", Province: "Ontario", ContactName: "Ann", ContactPhone: "555-0100",
		MainImageURL: "https://files.test/main.jpg", Images: []string{"https://files.test/a.jpg"},
		OwnerID: session.User.ID,
	}

	req := multipartRequest(t, http.MethodPut, "/api/v1/listings/pet-9", map[string]string{"pet_name": "Rex II", "price": "-4"})
	rec := h.do(req, session.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := h.gateway.Get(context.Background(), "pet-9")
	require.NoError(t, err)
	require.Equal(t, "Rex II", stored.Name)
	require.Zero(t, stored.Price)
	require.Equal(t, "https://files.test/main.jpg", stored.MainImageURL)
	require.Equal(t, []string{"https://files.test/a.jpg"}, stored.Images)
	require.Empty(t, h.uploader.puts)
}

func TestUpdateListing_RejectsOtherOwners(t *testing.T) {
	h := newPortalHarness(t)
	session := h.signIn(t, "ann@example.com")
	h.gateway.listings["pet-9"] = domain.Listing{ID: "pet-9", Name: "Rex", OwnerID: "someone-else"}

	req := multipartRequest(t, http.MethodPut, "/api/v1/listings/pet-9", map[string]string{"pet_name": "Mine now"})
	rec := h.do(req, session.Token)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, notOwnerMessage, decodeProblem(t, rec).Detail)

	del := h.do(httptest.NewRequest(http.MethodDelete, "/api/v1/listings/pet-9", nil), session.Token)
	require.Equal(t, http.StatusForbidden, del.Code)
	require.Empty(t, h.gateway.deleted)
}

func TestDeleteAndListMine(t *testing.T) {
	h := newPortalHarness(t)
	session := h.signIn(t, "ann@example.com")
	h.gateway.listings["pet-1"] = domain.Listing{ID: "pet-1", Name: "Rex", OwnerID: session.User.ID}
	h.gateway.listings["pet-2"] = domain.Listing{ID: "pet-2", Name: "Tom", OwnerID: "other"}

	mine := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/me/listings", nil), session.Token)
	require.Equal(t, http.StatusOK, mine.Code)
	var page listingtypes.ListingPage
	require.NoError(t, json.Unmarshal(mine.Body.Bytes(), &page))
	require.Len(t, page.Listings, 1)
	require.Equal(t, "pet-1", page.Listings[0].ID)

	rec := h.do(httptest.NewRequest(http.MethodDelete, "/api/v1/listings/pet-1", nil), session.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"pet-1"}, h.gateway.deleted)

	missing := h.do(httptest.NewRequest(http.MethodDelete, "/api/v1/listings/pet-1", nil), session.Token)
	require.Equal(t, http.StatusNotFound, missing.Code)
}

func TestDisplayMessage(t *testing.T) {
	submission := &listingsapp.SubmissionError{Stage: listingsapp.StageFinalize, Err: &httpclient.HTTPError{StatusCode: http.StatusNotFound}}
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"unauthenticated", fmt.Errorf("resolve: %w", accountsports.ErrUnauthenticated), accountsdomain.SignInRequiredMessage},
		{"submission hides cause", submission, submitFailedMessage},
		{"read not found", &httpclient.HTTPError{StatusCode: http.StatusNotFound}, notFoundMessage},
		{"anything else", errors.New("boom"), loadFailedMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fallback := loadFailedMessage
			if strings.HasPrefix(tc.name, "submission") {
				fallback = submitFailedMessage
			}
			require.Equal(t, tc.want, displayMessage(tc.err, fallback))
		})
	}
}
