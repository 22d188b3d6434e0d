package repository

import (
	"context"

	"github.com/anime-shed/flag-inspector-go/internal/storage"
)

// SourceKind identifies which fetcher serves an image reference
type SourceKind string

const (
	SourceHTTP  SourceKind = "http"
	SourceAzure SourceKind = "azure"
	SourceLocal SourceKind = "local"
)

// ImageRepository defines image acquisition for inspections
type ImageRepository interface {
	// FetchImage acquires and decodes the image a reference points to
	FetchImage(ctx context.Context, source string) (*storage.FetchedImage, error)

	// ValidateSource checks a reference without fetching it
	ValidateSource(source string) error

	// DecodeUpload decodes an image sent inline by the caller
	DecodeUpload(data []byte) (*storage.FetchedImage, error)
}
