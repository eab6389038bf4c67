package devbackend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/pet-portal/internal/domains/listings/adapters/rest"
	"github.com/Apurer/pet-portal/internal/domains/listings/adapters/transfer"
	"github.com/Apurer/pet-portal/internal/domains/listings/application/finalize"
	"github.com/Apurer/pet-portal/internal/domains/listings/application/form"
	listingtypes "github.com/Apurer/pet-portal/internal/domains/listings/application/types"
	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
	"github.com/Apurer/pet-portal/internal/platform/httpclient"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type backendHarness struct {
	url      string
	store    *MemoryListingStore
	client   *rest.Client
	uploader *transfer.Uploader
}

func newBackendHarness(t *testing.T) *backendHarness {
	t.Helper()
	store := NewMemoryListingStore()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var tick atomic.Int64
	store.WithClock(func() time.Time { return base.Add(time.Duration(tick.Add(1)) * time.Second) })

	var ids atomic.Int64
	srv := httptest.NewUnstartedServer(nil)
	publicURL := "http://" + srv.Listener.Addr().String()
	server := NewServer(store, NewMemoryObjectStore(), publicURL,
		WithIDGenerator(func() string { return fmt.Sprintf("pet-%d", ids.Add(1)) }),
		WithMaxObjectBytes(1<<20),
	)
	srv.Config.Handler = server.Router()
	srv.Start()
	t.Cleanup(srv.Close)

	backend, err := httpclient.New(srv.URL, 5*time.Second)
	require.NoError(t, err)
	client, err := rest.NewClient(backend)
	require.NoError(t, err)
	return &backendHarness{url: srv.URL, store: store, client: client, uploader: transfer.NewUploader(backend)}
}

func TestServer_ListingLifecycleThroughRestClient(t *testing.T) {
	h := newBackendHarness(t)
	ctx := context.Background()

	created, err := h.client.Create(ctx, domain.Listing{
		Name: "Rex", Species: domain.SpeciesDog, AgeCategory: domain.AgeAdult,
		Country: "Canada", Province: "Ontario", Price: -3, OwnerID: "owner-1",
		ContactName: "Ann", ContactPhone: "555-0100",
	})
	require.NoError(t, err)
	require.Equal(t, "pet-1", created.ListingID)

	stored, err := h.client.Get(ctx, "pet-1")
	require.NoError(t, err)
	require.Equal(t, "Rex", stored.Name)
	require.Zero(t, stored.Price)
	require.Equal(t, []string{}, stored.Images)

	stored.Name = "Rex II"
	stored.Images = []string{"https://files.test/a.jpg"}
	require.NoError(t, h.client.Update(ctx, "pet-1", *stored))

	owned, err := h.client.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	require.Equal(t, "Rex II", owned[0].Name)
	require.Equal(t, []string{"https://files.test/a.jpg"}, owned[0].Images)

	none, err := h.client.ListByOwner(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, none)

	require.NoError(t, h.client.Delete(ctx, "pet-1"))
	_, err = h.client.Get(ctx, "pet-1")
	status, ok := httpclient.StatusCode(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, status)

	err = h.client.Delete(ctx, "pet-1")
	status, _ = httpclient.StatusCode(err)
	require.Equal(t, http.StatusNotFound, status)
}

func TestServer_CreateKeepsClientID(t *testing.T) {
	h := newBackendHarness(t)
	created, err := h.client.Create(context.Background(), domain.Listing{ID: "chosen-id", Name: "Tom", Species: domain.SpeciesCat})
	require.NoError(t, err)
	require.Equal(t, "chosen-id", created.ListingID)
}

func TestServer_UpdateMergesPartialBody(t *testing.T) {
	h := newBackendHarness(t)
	_, err := h.store.Put(context.Background(), domain.Listing{ID: "p1", Name: "Rex", Town: "Toronto", Price: 10})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPut, h.url+"/pets/p1", strings.NewReader(`{"price": 99}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rec, err := h.store.Get(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, "Rex", rec.Entity.Name)
	require.Equal(t, "Toronto", rec.Entity.Town)
	require.Equal(t, 99.0, rec.Entity.Price)
}

func TestServer_EditClearsExactAgeAndOptionalText(t *testing.T) {
	h := newBackendHarness(t)
	ctx := context.Background()
	age := 3.0
	_, err := h.client.Create(ctx, domain.Listing{
		ID: "rex", Name: "Rex", Species: domain.SpeciesDog, ExactAge: &age, AgeCategory: domain.AgeAdult,
		Country: "Canada", Province: "Ontario", Town: "Ottawa", Description: "nice", Gender: "Male",
		Documents: []string{"vet-card.pdf"}, ContactName: "Ann", ContactPhone: "555-0100", OwnerID: "owner-1",
	})
	require.NoError(t, err)

	existing, err := h.client.Get(ctx, "rex")
	require.NoError(t, err)
	edit := form.NewEditForm(*existing)
	edit.SetAgeCategoryManually(domain.AgeSenior)
	edit.SetField(form.FieldTown, "")
	edit.SetField(form.FieldDescription, "")
	edit.SetField(form.FieldGender, "")
	edit.SetField(form.FieldDocuments, "")

	finalizer := finalize.NewFinalizer(h.client)
	require.NoError(t, edit.Submit(ctx, func(ctx context.Context, submission form.Submission) error {
		_, err := finalizer.Finalize(ctx, listingtypes.FinalizeCommand{Mode: submission.Mode, Listing: submission.Draft})
		return err
	}))

	stored, err := h.client.Get(ctx, "rex")
	require.NoError(t, err)
	require.Nil(t, stored.ExactAge)
	require.Equal(t, domain.AgeSenior, stored.AgeCategory)
	require.Empty(t, stored.Town)
	require.Empty(t, stored.Description)
	require.Empty(t, stored.Gender)
	require.Empty(t, stored.Documents)
	require.Equal(t, "Rex", stored.Name)
}

func TestServer_UpdateNullResetsAttribute(t *testing.T) {
	h := newBackendHarness(t)
	age := 5.0
	_, err := h.store.Put(context.Background(), domain.Listing{ID: "p1", Name: "Rex", ExactAge: &age, Town: "Toronto"})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPut, h.url+"/pets/p1", strings.NewReader(`{"exact_age": null, "town": null}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rec, err := h.store.Get(context.Background(), "p1")
	require.NoError(t, err)
	require.Nil(t, rec.Entity.ExactAge)
	require.Empty(t, rec.Entity.Town)
	require.Equal(t, "Rex", rec.Entity.Name)
}

func TestServer_ListFiltersSortsAndPages(t *testing.T) {
	h := newBackendHarness(t)
	ctx := context.Background()
	for _, l := range []domain.Listing{
		{ID: "a", Name: "A", Species: domain.SpeciesDog, Price: 50, Country: "Canada"},
		{ID: "b", Name: "B", Species: domain.SpeciesDog, Price: 300, Country: "Canada"},
		{ID: "c", Name: "C", Species: domain.SpeciesCat, Price: 10, Country: "Canada"},
		{ID: "d", Name: "D", Species: domain.SpeciesDog, Price: 120, Country: "Canada"},
		{ID: "e", Name: "E", Species: domain.SpeciesDog, Price: 80, Country: "United States"},
	} {
		_, err := h.store.Put(ctx, l)
		require.NoError(t, err)
	}

	first, err := h.client.List(ctx, listingtypes.ListFilter{Type: "Dog", Country: "Canada", Sort: listingtypes.SortPriceDesc, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "d"}, ids(first.Listings))
	require.NotEmpty(t, first.NextToken)

	second, err := h.client.List(ctx, listingtypes.ListFilter{Type: "Dog", Country: "Canada", Sort: listingtypes.SortPriceDesc, Limit: 2, NextToken: first.NextToken})
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, ids(second.Listings))
	require.Empty(t, second.NextToken)

	maxPrice := 100.0
	cheap, err := h.client.List(ctx, listingtypes.ListFilter{MaxPrice: &maxPrice})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "c", "e"}, ids(cheap.Listings))
}

func TestServer_UploadTargetsAndObjects(t *testing.T) {
	h := newBackendHarness(t)
	ctx := context.Background()

	targets, err := h.client.GenerateUploadTargets(ctx, listingtypes.UploadTargetRequest{
		ListingID: "pet-7", MainImage: "rex.png", Filenames: []string{"a.jpg"},
	})
	require.NoError(t, err)
	require.Len(t, targets, 2)
	main := targets[listingtypes.MainImageKey]
	require.Equal(t, h.url+"/uploads/pet-profiles/pet-7/rex.png", main.UploadURL)

	require.NoError(t, h.uploader.Put(ctx, main.UploadURL, domain.ImageFile{Name: "rex.png", ContentType: "image/png", Data: []byte("png-bytes")}))

	resp, err := http.Get(main.FileURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(body))

	missing, err := http.Get(h.url + "/uploads/pet-profiles/pet-7/nothing.jpg")
	require.NoError(t, err)
	missing.Body.Close()
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestServer_UploadTargetsDefaultsAndValidation(t *testing.T) {
	h := newBackendHarness(t)
	ctx := context.Background()

	targets, err := h.client.GenerateUploadTargets(ctx, listingtypes.UploadTargetRequest{ListingID: "pet-8"})
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(targets[listingtypes.MainImageKey].FileURL, "/pet-profiles/pet-8/main.jpg"))

	_, err = h.client.GenerateUploadTargets(ctx, listingtypes.UploadTargetRequest{Filenames: []string{"a.jpg"}})
	status, ok := httpclient.StatusCode(err)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, status)

	_, err = h.client.GenerateUploadTargets(ctx, listingtypes.UploadTargetRequest{ListingID: "pet-8", Filenames: []string{"../escape.jpg"}})
	status, _ = httpclient.StatusCode(err)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestServer_RejectsObjectsOutsidePrefix(t *testing.T) {
	h := newBackendHarness(t)
	req, err := http.NewRequest(http.MethodPut, h.url+"/uploads/other/file.jpg", strings.NewReader("x"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func ids(listings []domain.Listing) []string {
	out := make([]string, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}
