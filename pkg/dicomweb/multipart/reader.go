package multipart

import (
	"errors"
	"fmt"
	"io"
	"mime"
	stdmultipart "mime/multipart"
	"strings"
)

// Part is one body part of a multipart/related message
type Part struct {
	ContentType string
	Data        []byte
}

// Boundary pulls the boundary parameter out of a multipart Content-Type.
// DICOMweb servers commonly send type=application/dicom unquoted, which
// mime.ParseMediaType rejects, so parameters are split by hand in that case.
func Boundary(contentType string) (string, error) {
	mt, params, err := mime.ParseMediaType(contentType)
	switch {
	case err == nil:
		if !strings.HasPrefix(mt, "multipart/") {
			return "", fmt.Errorf("not a multipart content type: %q", mt)
		}
		if b := params["boundary"]; b != "" {
			return b, nil
		}
		return "", fmt.Errorf("no boundary in %q", contentType)
	case errors.Is(err, mime.ErrInvalidMediaParameter):
	default:
		return "", fmt.Errorf("parse content type %q: %w", contentType, err)
	}

	if !strings.HasPrefix(mt, "multipart/") {
		return "", fmt.Errorf("not a multipart content type: %q", mt)
	}
	for _, p := range strings.Split(contentType, ";")[1:] {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if ok && strings.EqualFold(strings.TrimSpace(k), "boundary") {
			if v = strings.Trim(strings.TrimSpace(v), `"`); v != "" {
				return v, nil
			}
		}
	}
	return "", fmt.Errorf("no boundary in %q", contentType)
}

// ReadParts splits a multipart body into its parts. Both CRLF and bare LF
// line endings are accepted.
func ReadParts(r io.Reader, contentType string) ([]Part, error) {
	boundary, err := Boundary(contentType)
	if err != nil {
		return nil, err
	}
	mr := stdmultipart.NewReader(r, boundary)
	var parts []Part
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return parts, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read part %d: %w", len(parts)+1, err)
		}
		data, err := io.ReadAll(p)
		p.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read part %d body: %w", len(parts)+1, err)
		}
		parts = append(parts, Part{ContentType: p.Header.Get("Content-Type"), Data: data})
	}
}
