package multipart

import (
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidBoundary    = errors.New("invalid multipart boundary")
	ErrInvalidContentType = errors.New("invalid part content type")
)

// maxBoundary is the RFC 2046 limit
const maxBoundary = 70

// NewBoundary returns a random boundary, a fresh v4 UUID per call
func NewBoundary() string {
	return uuid.NewString()
}

// ValidateBoundary accepts 1 to 70 characters drawn from the RFC 2046
// boundary alphabet that also need no quoting in a header parameter:
// ASCII letters, digits and ' + _ - .
func ValidateBoundary(boundary string) error {
	if boundary == "" {
		return fmt.Errorf("%w: empty", ErrInvalidBoundary)
	}
	if len(boundary) > maxBoundary {
		return fmt.Errorf("%w: %d chars exceeds %d", ErrInvalidBoundary, len(boundary), maxBoundary)
	}
	for i := 0; i < len(boundary); i++ {
		if !isBoundaryChar(boundary[i]) {
			return fmt.Errorf("%w: byte 0x%02X at %d", ErrInvalidBoundary, boundary[i], i)
		}
	}
	return nil
}

func isBoundaryChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("'+_-.", c) >= 0
}

// ValidateContentType accepts a bare ASCII type/subtype with no parameters,
// since the value is placed unquoted in the type= parameter
func ValidateContentType(contentType string) error {
	for i := 0; i < len(contentType); i++ {
		if c := contentType[i]; c <= ' ' || c > '~' {
			return fmt.Errorf("%w: byte 0x%02X at %d", ErrInvalidContentType, c, i)
		}
	}
	mt, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidContentType, contentType, err)
	}
	if len(params) > 0 || !strings.Contains(mt, "/") {
		return fmt.Errorf("%w: %q is not a bare type/subtype", ErrInvalidContentType, contentType)
	}
	return nil
}
