package repository

import "errors"

var (
	// ErrUnsupportedSource indicates a reference no fetcher understands
	ErrUnsupportedSource = errors.New("unsupported image source")

	// ErrSourceDisabled indicates a source kind that is not enabled in this deployment
	ErrSourceDisabled = errors.New("image source disabled")
)
