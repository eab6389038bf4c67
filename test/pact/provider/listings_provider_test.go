//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/pet-portal/internal/devbackend"
	pacttest "github.com/Apurer/pet-portal/test/pact"
)

func TestListingsBackendProviderPact(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateListingsBaseline: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
		pacttest.StateListingExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				_, err := app.store.Put(context.Background(), pacttest.ExistingListing())
				require.NoError(t, err)
			}
			return nil, nil
		},
		pacttest.StateListingMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset(t)
			return nil
		},
	})
	require.NoError(t, err)
}

type contractProviderApp struct {
	store  *devbackend.MemoryListingStore
	server *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()
	store := devbackend.NewMemoryListingStore()
	server := httptest.NewUnstartedServer(nil)
	backend := devbackend.NewServer(store, devbackend.NewMemoryObjectStore(), "http://"+server.Listener.Addr().String())
	server.Config.Handler = backend.Router()
	server.Start()
	t.Cleanup(server.Close)
	return &contractProviderApp{store: store, server: server}
}

func (a *contractProviderApp) reset(t testing.TB) {
	t.Helper()
	records, err := a.store.All(context.Background())
	require.NoError(t, err)
	for _, rec := range records {
		require.NoError(t, a.store.Delete(context.Background(), rec.Entity.ID))
	}
}
