package factory

import (
	"context"
	"fmt"
	"strings"

	"go-image-query/internal/storage"
)

// SourceType represents where a referenced image lives
type SourceType string

const (
	// HTTPSource for images fetched from an HTTP(S) URL
	HTTPSource SourceType = "http"
	// AzureSource for images stored as Azure blobs
	AzureSource SourceType = "azure"
)

// SourceResolver picks the fetcher for an image reference and returns the
// raw bytes plus declared content type.
type SourceResolver struct {
	httpFetcher storage.ImageFetcher
	blobStorage storage.BlobStorage // nil when Azure is not configured
}

// NewSourceResolver creates a resolver. blobStorage may be nil.
func NewSourceResolver(httpFetcher storage.ImageFetcher, blobStorage storage.BlobStorage) *SourceResolver {
	return &SourceResolver{
		httpFetcher: httpFetcher,
		blobStorage: blobStorage,
	}
}

// Classify maps an image reference onto a source type.
// References beginning with "azure://" address blob storage.
func Classify(ref string) SourceType {
	if strings.HasPrefix(strings.ToLower(ref), "azure://") {
		return AzureSource
	}
	return HTTPSource
}

// Fetch retrieves the referenced image.
func (r *SourceResolver) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	switch Classify(ref) {
	case AzureSource:
		if r.blobStorage == nil {
			return nil, "", fmt.Errorf("azure blob source is not configured")
		}
		return r.blobStorage.GetImage(ctx, strings.TrimPrefix(ref, "azure://"))
	default:
		return r.httpFetcher.FetchImage(ctx, ref)
	}
}
