package storage

import (
	"context"
	"os"
	"strings"

	apperrors "github.com/anime-shed/flag-inspector-go/internal/errors"
)

// LocalImageFetcher reads flag images from the filesystem. It serves the
// CLI and accepts plain paths as well as file:// references.
type LocalImageFetcher struct {
	decoder *Decoder
}

func NewLocalImageFetcher(decoder *Decoder) *LocalImageFetcher {
	return &LocalImageFetcher{decoder: decoder}
}

func (l *LocalImageFetcher) FetchImage(ctx context.Context, ref string) (*FetchedImage, error) {
	path := strings.TrimPrefix(ref, "file://")
	if path == "" {
		return nil, apperrors.NewValidationError("file path cannot be empty", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("image read cancelled", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("image file not found", err).WithDetails("path: " + path)
		}
		return nil, apperrors.NewDecodeError("failed to open image file", err)
	}
	if info.IsDir() {
		return nil, apperrors.NewValidationError("image path is a directory", nil).WithDetails("path: " + path)
	}
	if err := l.decoder.types.ValidateSize(info.Size()); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to open image file", err)
	}
	defer f.Close()

	return l.decoder.Decode(f)
}
