package domain

import (
	"net/http"
	"path/filepath"
	"strings"
)

// ImageFile is a raw image selected by the user and not yet uploaded.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// DeclaredContentType returns the content type to send with the transfer,
// falling back to the extension and finally to sniffing the bytes.
func (f ImageFile) DeclaredContentType() string {
	if ct := strings.TrimSpace(f.ContentType); ct != "" {
		return ct
	}
	switch strings.ToLower(filepath.Ext(f.Name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	if len(f.Data) > 0 {
		return http.DetectContentType(f.Data)
	}
	return "application/octet-stream"
}
