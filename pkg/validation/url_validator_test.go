package validation

import (
	"testing"

	apperrors "go-skin-analyzer/internal/errors"
)

func TestNewEndpointValidator(t *testing.T) {
	validator := NewEndpointValidator()
	if validator == nil {
		t.Fatal("Expected non-nil endpoint validator")
	}

	expectedSchemes := []string{"http", "https"}
	if len(validator.allowedSchemes) != len(expectedSchemes) {
		t.Errorf("Expected %d schemes, got %d", len(expectedSchemes), len(validator.allowedSchemes))
	}
}

func TestValidateEndpoint_Valid(t *testing.T) {
	validator := NewEndpointValidator()

	validURLs := []string{
		"https://n8n.example.com/webhook/skin-analyzer",
		"http://localhost:5678/webhook/abc",
		"http://192.168.1.10/analyze",
	}

	for _, u := range validURLs {
		if err := validator.ValidateEndpoint(u); err != nil {
			t.Errorf("Expected valid endpoint %s to pass validation, got error: %v", u, err)
		}
	}
}

func TestValidateEndpoint_Empty(t *testing.T) {
	validator := NewEndpointValidator()

	for _, u := range []string{"", "   ", "\t\n"} {
		err := validator.ValidateEndpoint(u)
		if err == nil {
			t.Errorf("Expected empty endpoint '%s' to fail validation", u)
			continue
		}
		appErr, ok := apperrors.As(err)
		if !ok {
			t.Errorf("Expected AppError, got: %T", err)
			continue
		}
		if appErr.Message != "endpoint URL cannot be empty" {
			t.Errorf("Unexpected message: %s", appErr.Message)
		}
	}
}

func TestValidateEndpoint_SchemeAndHost(t *testing.T) {
	validator := NewEndpointValidator()

	tests := []struct {
		url     string
		message string
	}{
		{"ftp://example.com/hook", "endpoint URL scheme not allowed"},
		{"file://local/path", "endpoint URL scheme not allowed"},
		{"https://", "endpoint URL must have a valid host"},
		{"http:///path", "endpoint URL must have a valid host"},
	}

	for _, tt := range tests {
		err := validator.ValidateEndpoint(tt.url)
		if err == nil {
			t.Errorf("Expected '%s' to fail validation", tt.url)
			continue
		}
		if appErr, ok := apperrors.As(err); ok && appErr.Message != tt.message {
			t.Errorf("%s: expected %q, got %q", tt.url, tt.message, appErr.Message)
		}
	}
}

func TestValidateEndpoint_RestrictedHosts(t *testing.T) {
	validator := NewEndpointValidatorWithOptions([]string{"https"}, []string{"hooks.example.com"})

	if err := validator.ValidateEndpoint("https://hooks.example.com/skin"); err != nil {
		t.Errorf("Expected allowed host to pass, got %v", err)
	}
	if err := validator.ValidateEndpoint("https://evil.example.net/skin"); err == nil {
		t.Error("Expected disallowed host to fail")
	}
	if err := validator.ValidateEndpoint("http://hooks.example.com/skin"); err == nil {
		t.Error("Expected http scheme to fail when only https is allowed")
	}
}
