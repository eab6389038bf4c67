package ports

import (
	"context"

	"github.com/Apurer/pet-portal/internal/domains/listings/domain"
)

// ObjectUploader places raw image bytes at a pre-signed upload target.
type ObjectUploader interface {
	Put(ctx context.Context, uploadURL string, file domain.ImageFile) error
}
