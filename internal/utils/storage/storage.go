package storage

import (
	"context"
	"net/http"
)

var AllowImage = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/gif",
}

// BlobStore persists opaque blobs under caller-chosen ids.
type BlobStore interface {
	Put(ctx context.Context, id string, data []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
	URL(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
}

// DetectContentType sniffs the blob and reports whether it is in allowed.
func DetectContentType(data []byte, allowed ...string) (string, bool) {
	contentType := http.DetectContentType(data)
	if len(allowed) == 0 {
		return contentType, true
	}
	for _, a := range allowed {
		if a == contentType {
			return contentType, true
		}
	}
	return contentType, false
}
