package validation

import (
	"net/url"
	"strings"

	apperrors "go-skin-analyzer/internal/errors"
)

// EndpointValidator checks the remote analysis endpoint before any submission is attempted.
type EndpointValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewEndpointValidator accepts any http/https host.
func NewEndpointValidator() *EndpointValidator {
	return &EndpointValidator{
		allowedSchemes: []string{"http", "https"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewEndpointValidatorWithOptions creates a validator restricted to the given schemes and hosts
func NewEndpointValidatorWithOptions(schemes []string, hosts []string) *EndpointValidator {
	return &EndpointValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateEndpoint validates the configured endpoint URL
func (v *EndpointValidator) ValidateEndpoint(endpoint string) error {
	if strings.TrimSpace(endpoint) == "" {
		return apperrors.NewValidationError("endpoint URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(endpoint)
	if err != nil {
		return apperrors.NewValidationError("invalid endpoint URL format", err)
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return apperrors.NewValidationError("endpoint URL scheme not allowed", nil)
	}

	if parsedURL.Host == "" {
		return apperrors.NewValidationError("endpoint URL must have a valid host", nil)
	}

	if len(v.allowedHosts) > 0 && !v.isHostAllowed(parsedURL.Host) {
		return apperrors.NewValidationError("endpoint URL host not allowed", nil)
	}

	return nil
}

func (v *EndpointValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed returns true if no host restrictions are set
func (v *EndpointValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if host == allowed {
			return true
		}
	}
	return false
}
