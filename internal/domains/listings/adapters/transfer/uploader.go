package transfer

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
	"github.com/Apurer/pet-portal/internal/domains/listings/ports"
	"github.com/Apurer/pet-portal/internal/platform/httpclient"
)

var _ ports.ObjectUploader = (*Uploader)(nil)

// Uploader PUTs raw bytes to pre-signed upload URLs. Any 2xx is success.
type Uploader struct {
	client *httpclient.Client
}

func NewUploader(client *httpclient.Client) *Uploader {
	return &Uploader{client: client}
}

func (u *Uploader) Put(ctx context.Context, uploadURL string, file domain.ImageFile) error {
	if u == nil || u.client == nil {
		return errors.New("object uploader not configured")
	}
	if strings.TrimSpace(uploadURL) == "" {
		return errors.New("upload url is required")
	}
	headers := map[string]string{"Content-Type": file.DeclaredContentType()}
	data := file.Data
	if data == nil {
		data = []byte{}
	}
	_, err := u.client.Do(ctx, http.MethodPut, uploadURL, headers, data)
	return err
}
