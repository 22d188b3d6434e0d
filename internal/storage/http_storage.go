package storage

import (
	"context"
	"crypto/tls"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/anime-shed/flag-inspector-go/internal/errors"
	"github.com/anime-shed/flag-inspector-go/internal/logger"
)

const (
	defaultFetchAttempts = 3
	maxRedirects         = 3
)

// HTTPOptions tunes the remote fetcher
type HTTPOptions struct {
	Timeout            time.Duration
	Attempts           int
	RetryBackoff       time.Duration
	InsecureSkipVerify bool
}

// DefaultHTTPOptions mirrors the production fetch policy
func DefaultHTTPOptions() HTTPOptions {
	return HTTPOptions{
		Timeout:      30 * time.Second,
		Attempts:     defaultFetchAttempts,
		RetryBackoff: time.Second,
	}
}

// HTTPImageFetcher downloads flag images over http and https
type HTTPImageFetcher struct {
	client  *http.Client
	decoder *Decoder
	opts    HTTPOptions
}

// NewHTTPImageFetcher creates a fetcher with a transport sized for single image downloads
func NewHTTPImageFetcher(decoder *Decoder, opts HTTPOptions) *HTTPImageFetcher {
	if opts.Attempts <= 0 {
		opts.Attempts = defaultFetchAttempts
	}

	transport := &http.Transport{
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: opts.InsecureSkipVerify,
		},
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (limit: %d)", maxRedirects)
				}
				return nil
			},
		},
		decoder: decoder,
		opts:    opts,
	}
}

// FetchImage downloads and decodes imageURL. Transport failures and 5xx
// responses are retried with a linear backoff; 4xx responses are not.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (*FetchedImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid URL format", err)
	}
	req.Header.Set("Accept", "image/png, image/jpeg, image/webp, image/gif, image/bmp, image/tiff, */*")
	req.Header.Set("User-Agent", "Flag-Inspector/1.0")

	var lastErr error
	for attempt := 0; attempt < h.opts.Attempts; attempt++ {
		if attempt > 0 {
			logger.WithFields(map[string]interface{}{
				"url":     imageURL,
				"attempt": attempt + 1,
				"error":   lastErr.Error(),
			}).Debug("Retrying image fetch")

			select {
			case <-ctx.Done():
				return nil, apperrors.NewTimeoutError("image fetch timed out", ctx.Err())
			case <-time.After(time.Duration(attempt) * h.opts.RetryBackoff):
			}
		}

		resp, err := h.client.Do(req)
		if err != nil {
			if ctx.Err() != nil || isTimeout(err) {
				return nil, apperrors.NewTimeoutError("image fetch timed out", err)
			}
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return h.decode(ctx, resp)
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, apperrors.NewNotFoundError("image not found", fmt.Errorf("client error: status code %d", resp.StatusCode))
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			resp.Body.Close()
			return nil, apperrors.NewNetworkError("failed to fetch image", fmt.Errorf("client error: status code %d", resp.StatusCode))
		default:
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
		}
	}

	return nil, apperrors.NewNetworkError(
		fmt.Sprintf("failed to fetch image after %d attempts", h.opts.Attempts), lastErr)
}

func (h *HTTPImageFetcher) decode(ctx context.Context, resp *http.Response) (*FetchedImage, error) {
	defer resp.Body.Close()

	if resp.ContentLength > 0 {
		if err := h.decoder.types.ValidateSize(resp.ContentLength); err != nil {
			return nil, err
		}
	}

	fetched, err := h.decoder.Decode(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.NewTimeoutError("image fetch timed out", err)
		}
		return nil, err
	}
	return fetched, nil
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return stderrors.As(err, &te) && te.Timeout()
}
