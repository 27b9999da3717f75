package validation

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "go-skin-analyzer/internal/errors"
)

// DefaultMaxUploadSize is the largest photo accepted before normalization (10 MiB).
const DefaultMaxUploadSize int64 = 10 * 1024 * 1024

// DefaultMaxPixels caps the decoded raster of a source photo (40 Mpx).
const DefaultMaxPixels int64 = 40_000_000

// Upload rejection messages, matched by the HTTP layer to pick a user message.
const (
	MsgEmptyFile         = "empty file"
	MsgUnsupportedFormat = "unsupported file format"
	MsgFileTooLarge      = "file too large"
	MsgImageDimensions   = "image dimensions too large"
)

// DefaultAcceptedMIMETypes lists the formats the normalizer can decode.
var DefaultAcceptedMIMETypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// Upload is the subset of an uploaded photo the validator looks at.
type Upload struct {
	Data         []byte
	DeclaredMIME string
	Size         int64
}

// UploadValidator rejects photos that must never reach the normalizer.
type UploadValidator struct {
	maxSize  int64
	accepted []string
}

// NewUploadValidator creates a validator; non-positive maxSize and empty accepted fall back to defaults.
func NewUploadValidator(maxSize int64, accepted []string) *UploadValidator {
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	if len(accepted) == 0 {
		accepted = DefaultAcceptedMIMETypes
	}
	normalized := make([]string, 0, len(accepted))
	for _, m := range accepted {
		normalized = append(normalized, NormalizeMIME(m))
	}
	return &UploadValidator{maxSize: maxSize, accepted: normalized}
}

// Validate returns the effective MIME type of the upload, or a validation error.
func (v *UploadValidator) Validate(u Upload) (string, error) {
	if u.Size == 0 || len(u.Data) == 0 {
		return "", apperrors.NewValidationError(MsgEmptyFile, nil)
	}

	mimeType := v.ResolveMIME(u.Data, u.DeclaredMIME)
	if !v.isAccepted(mimeType) {
		err := apperrors.NewValidationError(MsgUnsupportedFormat, nil)
		err.Details = fmt.Sprintf("got %s, accepted %s", mimeType, strings.Join(v.accepted, ", "))
		return "", err
	}

	if u.Size > v.maxSize {
		err := apperrors.NewValidationError(MsgFileTooLarge, nil)
		err.Details = fmt.Sprintf("%d bytes exceeds the %d byte limit", u.Size, v.maxSize)
		return "", err
	}

	return mimeType, nil
}

// ResolveMIME prefers the declared type and sniffs the content when the declaration is missing or generic.
func (v *UploadValidator) ResolveMIME(data []byte, declared string) string {
	declared = NormalizeMIME(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return NormalizeMIME(mimetype.Detect(data).String())
}

// MaxSize returns the configured byte limit.
func (v *UploadValidator) MaxSize() int64 {
	return v.maxSize
}

func (v *UploadValidator) isAccepted(mimeType string) bool {
	for _, a := range v.accepted {
		if a == mimeType {
			return true
		}
	}
	return false
}

// NormalizeMIME lowercases, drops parameters and folds the image/jpg alias.
func NormalizeMIME(m string) string {
	m = strings.ToLower(strings.TrimSpace(m))
	if i := strings.Index(m, ";"); i >= 0 {
		m = strings.TrimSpace(m[:i])
	}
	if m == "image/jpg" || m == "image/pjpeg" {
		return "image/jpeg"
	}
	return m
}
