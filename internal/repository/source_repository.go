package repository

import (
	"context"
	"net/url"
	"strings"

	apperrors "github.com/anime-shed/flag-inspector-go/internal/errors"
	"github.com/anime-shed/flag-inspector-go/internal/storage"
	"github.com/anime-shed/flag-inspector-go/pkg/validation"
)

// SourceRepository routes image references to the fetcher for their kind.
// A nil fetcher disables that kind of source.
type SourceRepository struct {
	fetchers  map[SourceKind]storage.ImageFetcher
	decoder   *storage.Decoder
	validator *validation.URLValidator
}

// Option configures a SourceRepository
type Option func(*SourceRepository)

// WithFetcher enables a source kind
func WithFetcher(kind SourceKind, fetcher storage.ImageFetcher) Option {
	return func(r *SourceRepository) {
		if fetcher != nil {
			r.fetchers[kind] = fetcher
		}
	}
}

// WithURLValidator replaces the default http(s) validator
func WithURLValidator(v *validation.URLValidator) Option {
	return func(r *SourceRepository) {
		r.validator = v
	}
}

func NewSourceRepository(decoder *storage.Decoder, opts ...Option) *SourceRepository {
	r := &SourceRepository{
		fetchers:  make(map[SourceKind]storage.ImageFetcher),
		decoder:   decoder,
		validator: validation.NewURLValidator(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Classify decides which kind of source a reference names. Azure blob URLs
// fall back to plain http when no Azure fetcher is configured, so public
// containers keep working without credentials.
func (r *SourceRepository) Classify(source string) (SourceKind, error) {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return "", apperrors.NewValidationError("image source cannot be empty", nil)
	}

	if !strings.Contains(trimmed, "://") {
		return SourceLocal, nil
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", apperrors.NewValidationError("Invalid URL format", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return SourceLocal, nil
	case "http", "https":
		if _, ok := r.fetchers[SourceAzure]; ok && storage.IsAzureBlobURL(u) {
			return SourceAzure, nil
		}
		return SourceHTTP, nil
	default:
		return "", apperrors.NewValidationError("URL scheme not allowed", ErrUnsupportedSource).
			WithDetails("scheme: " + u.Scheme)
	}
}

func (r *SourceRepository) ValidateSource(source string) error {
	_, err := r.resolve(source)
	return err
}

func (r *SourceRepository) FetchImage(ctx context.Context, source string) (*storage.FetchedImage, error) {
	fetcher, err := r.resolve(source)
	if err != nil {
		return nil, err
	}
	return fetcher.FetchImage(ctx, strings.TrimSpace(source))
}

func (r *SourceRepository) DecodeUpload(data []byte) (*storage.FetchedImage, error) {
	return r.decoder.DecodeBytes(data)
}

func (r *SourceRepository) resolve(source string) (storage.ImageFetcher, error) {
	kind, err := r.Classify(source)
	if err != nil {
		return nil, err
	}

	if kind != SourceLocal {
		if err := r.validator.ValidateImageURL(source); err != nil {
			return nil, err
		}
	}

	fetcher, ok := r.fetchers[kind]
	if !ok {
		return nil, apperrors.NewValidationError("image source not accepted", ErrSourceDisabled).
			WithDetails("source kind: " + string(kind))
	}
	return fetcher, nil
}
