package validation

import (
	"net/url"
	"slices"
	"strings"

	apperrors "github.com/anime-shed/flag-inspector-go/internal/errors"
)

// maxURLLength bounds remote image references accepted by the API
const maxURLLength = 2048

// URLValidator checks remote flag image references before they are fetched
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator accepts any host over http or https
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
	}
}

// NewURLValidatorWithOptions restricts schemes and, when hosts is non-empty, hostnames
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateImageURL reports a validation AppError for references the fetchers must not follow
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	trimmed := strings.TrimSpace(imageURL)
	if trimmed == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}
	if len(trimmed) > maxURLLength {
		return apperrors.NewValidationError("URL is too long", nil)
	}

	parsedURL, err := url.Parse(trimmed)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return apperrors.NewValidationError("URL scheme not allowed", nil).
			WithDetails("scheme: " + parsedURL.Scheme)
	}

	if parsedURL.Hostname() == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if !v.isHostAllowed(parsedURL.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil).
			WithDetails("host: " + parsedURL.Hostname())
	}

	return nil
}

func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	return slices.Contains(v.allowedSchemes, strings.ToLower(scheme))
}

// isHostAllowed is true for every host when no restriction is configured
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	return slices.ContainsFunc(v.allowedHosts, func(allowed string) bool {
		return strings.EqualFold(allowed, host)
	})
}
