// Package multipart builds and splits the multipart/related bodies used by
// STOW-RS uploads and WADO-RS retrieves.
package multipart

import (
	"bytes"
	"fmt"
	"io"
)

// DICOM is the part type STOW-RS servers expect for Part 10 files
const DICOM = "application/dicom"

// Encode wraps payload in a single part multipart/related body:
//
//	--{boundary}\nContent-Type: {contentType}\n\n{payload}\n--{boundary}--\n
//
// The payload is copied verbatim into a new buffer owned by the caller.
// contentType and boundary are written byte for byte and must be ASCII,
// see ValidateBoundary and ValidateContentType. A boundary that occurs
// inside the payload yields a malformed message; Contains detects that.
func Encode(payload []byte, contentType, boundary string) []byte {
	header := Header(contentType, boundary)
	trailer := Trailer(boundary)

	b := make([]byte, 0, len(header)+len(payload)+len(trailer))
	b = append(b, header...)
	b = append(b, payload...)
	return append(b, trailer...)
}

// Header is the opening delimiter and part headers that precede the payload
func Header(contentType, boundary string) []byte {
	return []byte("--" + boundary + "\nContent-Type: " + contentType + "\n\n")
}

// Trailer is the close delimiter that follows the payload
func Trailer(boundary string) []byte {
	return []byte("\n--" + boundary + "--\n")
}

// NewReader streams the same bytes Encode would return without holding the
// payload in memory
func NewReader(payload io.Reader, contentType, boundary string) io.Reader {
	return io.MultiReader(
		bytes.NewReader(Header(contentType, boundary)),
		payload,
		bytes.NewReader(Trailer(boundary)),
	)
}

// EncodedLen is len(Encode(payload, contentType, boundary)) for a payload of n bytes
func EncodedLen(n int, contentType, boundary string) int {
	return len(Header(contentType, boundary)) + n + len(Trailer(boundary))
}

// ContentType is the request header value matching a body built with boundary
func ContentType(partType, boundary string) string {
	return fmt.Sprintf("multipart/related; type=%s; boundary=%s", partType, boundary)
}

// Contains reports whether the payload holds the boundary delimiter
func Contains(payload []byte, boundary string) bool {
	return bytes.Contains(payload, []byte("--"+boundary))
}
