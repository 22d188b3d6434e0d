package validation

import (
	"fmt"
	"slices"

	"github.com/gabriel-vasile/mimetype"

	apperrors "github.com/anime-shed/flag-inspector-go/internal/errors"
)

// SupportedImageTypes are the MIME types the decoders are registered for
var SupportedImageTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
	"image/bmp",
	"image/tiff",
}

// DefaultMaxPixels bounds the declared width×height of an image (25 megapixels)
const DefaultMaxPixels int64 = 25_000_000

// ImageTypeValidator sniffs raw bytes instead of trusting a declared Content-Type
type ImageTypeValidator struct {
	maxBytes  int64
	maxPixels int64
	allowed   []string
}

// NewImageTypeValidator limits payloads to maxBytes; maxBytes <= 0 disables the size check
func NewImageTypeValidator(maxBytes int64) *ImageTypeValidator {
	return &ImageTypeValidator{
		maxBytes:  maxBytes,
		maxPixels: DefaultMaxPixels,
		allowed:   SupportedImageTypes,
	}
}

// WithMaxPixels replaces the pixel limit; n <= 0 keeps the current one
func (v *ImageTypeValidator) WithMaxPixels(n int64) *ImageTypeValidator {
	if n > 0 {
		v.maxPixels = n
	}
	return v
}

// MaxBytes returns the configured payload limit
func (v *ImageTypeValidator) MaxBytes() int64 {
	return v.maxBytes
}

func (v *ImageTypeValidator) MaxPixels() int64 {
	return v.maxPixels
}

// ValidateSize rejects payloads over the configured limit with a too_large error
func (v *ImageTypeValidator) ValidateSize(size int64) error {
	if v.maxBytes > 0 && size > v.maxBytes {
		return apperrors.NewTooLargeError("image exceeds maximum allowed size", nil).
			WithDetails(formatLimit(size, v.maxBytes))
	}
	return nil
}

// ValidateDimensions rejects images whose declared pixel count is over the
// limit. Compressed formats can declare far more pixels than their byte size
// suggests, so this runs on the header before any pixel data is decoded.
func (v *ImageTypeValidator) ValidateDimensions(width, height int) error {
	pixels := int64(width) * int64(height)
	if pixels > v.maxPixels {
		return apperrors.NewTooLargeError("image exceeds maximum allowed dimensions", nil).
			WithDetails(fmt.Sprintf("dimensions %dx%d (%d pixels), limit %d pixels", width, height, pixels, v.maxPixels))
	}
	return nil
}

// Detect returns the sniffed MIME type of data, or a decode error when it is
// not one of the supported image formats.
func (v *ImageTypeValidator) Detect(data []byte) (string, error) {
	if len(data) == 0 {
		return "", apperrors.NewDecodeError("image payload is empty", nil)
	}

	mt := mimetype.Detect(data)
	if !slices.ContainsFunc(v.allowed, mt.Is) {
		return "", apperrors.NewDecodeError("unsupported image type", nil).
			WithDetails("detected: " + mt.String())
	}
	return mt.String(), nil
}

func formatLimit(size, limit int64) string {
	return fmt.Sprintf("size %d bytes, limit %d bytes", size, limit)
}
