package repository

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/anime-shed/flag-inspector-go/internal/errors"
	"github.com/anime-shed/flag-inspector-go/internal/storage"
	"github.com/anime-shed/flag-inspector-go/pkg/validation"
)

type recordingFetcher struct {
	kind SourceKind
	refs []string
}

func (f *recordingFetcher) FetchImage(ctx context.Context, ref string) (*storage.FetchedImage, error) {
	f.refs = append(f.refs, ref)
	return &storage.FetchedImage{Image: image.NewRGBA(image.Rect(0, 0, 3, 2))}, nil
}

func newTestRepository(kinds ...SourceKind) (*SourceRepository, map[SourceKind]*recordingFetcher) {
	fetchers := make(map[SourceKind]*recordingFetcher)
	var opts []Option
	for _, k := range kinds {
		f := &recordingFetcher{kind: k}
		fetchers[k] = f
		opts = append(opts, WithFetcher(k, f))
	}
	return NewSourceRepository(storage.NewDecoder(1<<20), opts...), fetchers
}

func TestSourceRepository_Classify(t *testing.T) {
	all, _ := newTestRepository(SourceHTTP, SourceAzure, SourceLocal)
	httpOnly, _ := newTestRepository(SourceHTTP)

	tests := []struct {
		repo   *SourceRepository
		source string
		want   SourceKind
	}{
		{all, "https://example.com/flag.png", SourceHTTP},
		{all, "http://example.com/flag.png", SourceHTTP},
		{all, "https://flags.blob.core.windows.net/c/flag.png", SourceAzure},
		{httpOnly, "https://flags.blob.core.windows.net/c/flag.png", SourceHTTP},
		{all, "/tmp/flag.png", SourceLocal},
		{all, "flag.png", SourceLocal},
		{all, "file:///tmp/flag.png", SourceLocal},
		{all, "  https://example.com/flag.png  ", SourceHTTP},
	}

	for _, tt := range tests {
		got, err := tt.repo.Classify(tt.source)
		require.NoError(t, err, tt.source)
		assert.Equal(t, tt.want, got, tt.source)
	}

	_, err := all.Classify("ftp://example.com/flag.png")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.True(t, errors.Is(err, ErrUnsupportedSource))

	_, err = all.Classify("   ")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestSourceRepository_FetchRoutes(t *testing.T) {
	repo, fetchers := newTestRepository(SourceHTTP, SourceAzure, SourceLocal)
	ctx := context.Background()

	for _, source := range []string{
		"https://example.com/flag.png",
		"https://flags.blob.core.windows.net/c/flag.png",
		"/tmp/flag.png",
	} {
		_, err := repo.FetchImage(ctx, source)
		require.NoError(t, err, source)
	}

	assert.Equal(t, []string{"https://example.com/flag.png"}, fetchers[SourceHTTP].refs)
	assert.Equal(t, []string{"https://flags.blob.core.windows.net/c/flag.png"}, fetchers[SourceAzure].refs)
	assert.Equal(t, []string{"/tmp/flag.png"}, fetchers[SourceLocal].refs)
}

func TestSourceRepository_DisabledKind(t *testing.T) {
	repo, fetchers := newTestRepository(SourceHTTP)

	_, err := repo.FetchImage(context.Background(), "/etc/passwd")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.True(t, errors.Is(err, ErrSourceDisabled))
	assert.Empty(t, fetchers[SourceHTTP].refs)
}

func TestSourceRepository_URLValidation(t *testing.T) {
	repo, fetchers := newTestRepository(SourceHTTP)
	restricted := NewSourceRepository(storage.NewDecoder(1<<20),
		WithFetcher(SourceHTTP, fetchers[SourceHTTP]),
		WithURLValidator(validation.NewURLValidatorWithOptions([]string{"https"}, []string{"flags.test"})),
	)

	assert.NoError(t, repo.ValidateSource("https://example.com/flag.png"))
	assert.Error(t, repo.ValidateSource("http:///flag.png"))
	assert.Error(t, restricted.ValidateSource("https://example.com/flag.png"))
	assert.NoError(t, restricted.ValidateSource("https://flags.test/flag.png"))
	assert.Empty(t, fetchers[SourceHTTP].refs)
}

func TestSourceRepository_DecodeUpload(t *testing.T) {
	repo, _ := newTestRepository()

	_, err := repo.DecodeUpload([]byte("not an image"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDecode))
}
