package storage

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/anime-shed/flag-inspector-go/internal/errors"
	"github.com/anime-shed/flag-inspector-go/pkg/models"
	"github.com/anime-shed/flag-inspector-go/pkg/validation"
)

// FetchedImage is a decoded raster together with what was learned acquiring it
type FetchedImage struct {
	Image    image.Image
	Metadata models.ImageMetadata
}

// ImageFetcher acquires and decodes a flag image from one kind of source
type ImageFetcher interface {
	FetchImage(ctx context.Context, ref string) (*FetchedImage, error)
}

// Decoder turns raw payloads into images under a byte limit
type Decoder struct {
	types *validation.ImageTypeValidator
}

func NewDecoder(maxBytes int64) *Decoder {
	return &Decoder{types: validation.NewImageTypeValidator(maxBytes)}
}

// WithMaxPixels limits the declared width×height of decoded images;
// n <= 0 keeps validation.DefaultMaxPixels.
func (d *Decoder) WithMaxPixels(n int64) *Decoder {
	d.types.WithMaxPixels(n)
	return d
}

// Decode reads at most the configured limit plus one byte from r so
// oversized payloads are detected without buffering them whole.
func (d *Decoder) Decode(r io.Reader) (*FetchedImage, error) {
	limit := d.types.MaxBytes()
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read image payload", err)
	}
	return d.DecodeBytes(data)
}

// DecodeBytes decodes an in-memory payload such as a multipart upload
func (d *Decoder) DecodeBytes(data []byte) (*FetchedImage, error) {
	if err := d.types.ValidateSize(int64(len(data))); err != nil {
		return nil, err
	}

	contentType, err := d.types.Detect(data)
	if err != nil {
		return nil, err
	}

	header, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to decode image header", err)
	}
	if err := d.types.ValidateDimensions(header.Width, header.Height); err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to decode image", err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, apperrors.NewDecodeError("image has no pixels", nil)
	}

	return &FetchedImage{
		Image: img,
		Metadata: models.ImageMetadata{
			ContentType:   contentType,
			ContentLength: int64(len(data)),
			Width:         bounds.Dx(),
			Height:        bounds.Dy(),
			Format:        format,
		},
	}, nil
}
