package multipart

import (
	"bytes"
	"io"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Scenario(t *testing.T) {
	got := Encode([]byte{0xDE, 0xAD, 0xBE, 0xEF}, "application/dicom", "XYZ")

	want := append([]byte("--XYZ\nContent-Type: application/dicom\n\n"), 0xDE, 0xAD, 0xBE, 0xEF)
	want = append(want, []byte("\n--XYZ--\n")...)
	assert.Equal(t, want, got)
}

func TestEncode_RoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	tests := []struct {
		name    string
		payload []byte
	}{
		{"Empty", nil},
		{"Single", []byte{0x00}},
		{"AllBytes", allBytes()},
		{"Random4K", randomBytes(rnd, 4096)},
		{"CRLFs", []byte("\r\n\r\n\n\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, boundary := DICOM, "b0und4ry-X"
			require.False(t, Contains(tt.payload, boundary))

			body := Encode(tt.payload, ct, boundary)
			h, tr := len(Header(ct, boundary)), len(Trailer(boundary))
			require.Equal(t, h+len(tt.payload)+tr, len(body))
			assert.Equal(t, EncodedLen(len(tt.payload), ct, boundary), len(body))

			assert.Equal(t, Header(ct, boundary), body[:h])
			assert.True(t, bytes.Equal(tt.payload, body[h:h+len(tt.payload)]), "payload altered")
			assert.Equal(t, Trailer(boundary), body[h+len(tt.payload):])
		})
	}
}

func TestEncode_OwnsBuffer(t *testing.T) {
	payload := []byte{1, 2, 3}
	body := Encode(payload, DICOM, "XYZ")
	h := len(Header(DICOM, "XYZ"))

	payload[0] = 0xFF
	assert.Equal(t, byte(1), body[h], "body must not alias the payload")

	again := Encode([]byte{1, 2, 3}, DICOM, "XYZ")
	body[0] = 'x'
	assert.Equal(t, byte('-'), again[0])
}

func TestEncode_Concurrent(t *testing.T) {
	payload := randomBytes(rand.New(rand.NewSource(3)), 1024)
	want := Encode(payload, DICOM, "XYZ")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			boundary := fmt.Sprintf("b-%d", i)
			for j := 0; j < 200; j++ {
				assert.Equal(t, want, Encode(payload, DICOM, "XYZ"))
				body := Encode(payload, DICOM, boundary)
				assert.Equal(t, EncodedLen(len(payload), DICOM, boundary), len(body))
			}
		}(i)
	}
	wg.Wait()
}

func TestNewReader_MatchesEncode(t *testing.T) {
	payload := randomBytes(rand.New(rand.NewSource(1)), 10000)
	boundary := NewBoundary()

	streamed, err := io.ReadAll(NewReader(bytes.NewReader(payload), DICOM, boundary))
	require.NoError(t, err)
	assert.Equal(t, Encode(payload, DICOM, boundary), streamed)
}

func TestContentType(t *testing.T) {
	assert.Equal(t,
		"multipart/related; type=application/dicom; boundary=XYZ",
		ContentType(DICOM, "XYZ"))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]byte("abc--XYZdef"), "XYZ"))
	assert.False(t, Contains([]byte("abcXYZdef"), "XYZ"))
	assert.False(t, Contains(nil, "XYZ"))
}

func allBytes() []byte {
	b := make([]byte, 256)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func randomBytes(rnd *rand.Rand, n int) []byte {
	b := make([]byte, n)
	rnd.Read(b)
	return b
}
