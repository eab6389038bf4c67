package transfer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
	"github.com/Apurer/pet-portal/internal/platform/httpclient"
)

func TestPut_SendsBytesWithContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "image/png", r.Header.Get("Content-Type"))
		require.Equal(t, "sig", r.URL.Query().Get("X-Signature"))
		body, _ := io.ReadAll(r.Body)
		require.Equal(t, "png-bytes", string(body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client, err := httpclient.New("", 0)
	require.NoError(t, err)
	uploader := NewUploader(client)

	err = uploader.Put(context.Background(), srv.URL+"/pet-profiles/p1/a.png?X-Signature=sig", domain.ImageFile{Name: "a.png", Data: []byte("png-bytes")})
	require.NoError(t, err)
}

func TestPut_RejectedUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client, err := httpclient.New("", 0)
	require.NoError(t, err)

	err = NewUploader(client).Put(context.Background(), srv.URL+"/x", domain.ImageFile{Name: "a.jpg"})
	status, ok := httpclient.StatusCode(err)
	require.True(t, ok)
	require.Equal(t, http.StatusForbidden, status)
}
