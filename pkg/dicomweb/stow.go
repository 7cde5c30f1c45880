package dicomweb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jpfielding/dicomweb.go/pkg/dicomweb/dicomjson"
	"github.com/jpfielding/dicomweb.go/pkg/dicomweb/multipart"
	"github.com/jpfielding/dicomweb.go/pkg/dicomweb/tag"
)

var ErrBoundaryCollision = errors.New("boundary occurs in payload")

// StoreOptions controls a STOW-RS request. Zero values select
// application/dicom, a random boundary and the service wide /studies.
type StoreOptions struct {
	ContentType      string
	Boundary         string
	StudyInstanceUID string
}

func (o StoreOptions) withDefaults() StoreOptions {
	if o.ContentType == "" {
		o.ContentType = multipart.DICOM
	}
	if o.Boundary == "" {
		o.Boundary = multipart.NewBoundary()
	}
	return o
}

func (o StoreOptions) validate() error {
	if err := multipart.ValidateContentType(o.ContentType); err != nil {
		return err
	}
	return multipart.ValidateBoundary(o.Boundary)
}

// StoredInstance is an entry of the Referenced SOP Sequence
type StoredInstance struct {
	SOPClassUID    string `json:"sopClassUid"`
	SOPInstanceUID string `json:"sopInstanceUid"`
	RetrieveURL    string `json:"retrieveUrl"`
	WarningReason  string `json:"warningReason,omitempty"`
}

// FailedInstance is an entry of the Failed SOP Sequence
type FailedInstance struct {
	SOPClassUID    string `json:"sopClassUid"`
	SOPInstanceUID string `json:"sopInstanceUid"`
	FailureReason  string `json:"failureReason"`
}

// StoreResult is the parsed STOW-RS response
type StoreResult struct {
	StatusCode  int               `json:"statusCode"`
	RetrieveURL string            `json:"retrieveUrl"`
	Stored      []StoredInstance  `json:"stored"`
	Failed      []FailedInstance  `json:"failed"`
	Dataset     dicomjson.Dataset `json:"-"`
}

// Store uploads payload as a single part STOW-RS request
func (c *Client) Store(ctx context.Context, payload []byte, opts StoreOptions) (*StoreResult, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if multipart.Contains(payload, opts.Boundary) {
		return nil, fmt.Errorf("%w: %q", ErrBoundaryCollision, opts.Boundary)
	}
	body := multipart.Encode(payload, opts.ContentType, opts.Boundary)
	return c.store(ctx, bytes.NewReader(body), int64(len(body)), opts)
}

// StoreReader streams size bytes from r as a single part STOW-RS request.
// The payload is not scanned for the boundary; the random default makes a
// collision vanishingly unlikely.
func (c *Client) StoreReader(ctx context.Context, r io.Reader, size int64, opts StoreOptions) (*StoreResult, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	body := multipart.NewReader(r, opts.ContentType, opts.Boundary)
	length := int64(multipart.EncodedLen(0, opts.ContentType, opts.Boundary)) + size
	return c.store(ctx, body, length, opts)
}

func (c *Client) store(ctx context.Context, body io.Reader, length int64, opts StoreOptions) (*StoreResult, error) {
	elem := []string{string(Studies)}
	if opts.StudyInstanceUID != "" {
		elem = append(elem, opts.StudyInstanceUID)
	}
	target, err := c.endpoint(elem...)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create store request: %w", err)
	}
	req.ContentLength = length
	req.Header.Set("Content-Type", multipart.ContentType(opts.ContentType, opts.Boundary))
	req.Header.Set("Accept", acceptJSON)

	slog.DebugContext(ctx, "STOW-RS upload", "url", target, "bytes", length, "boundary", opts.Boundary)
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read store response: %w", err)
	}
	result := &StoreResult{StatusCode: resp.StatusCode}
	if len(bytes.TrimSpace(raw)) == 0 {
		return result, nil
	}
	ds, err := dicomjson.DecodeDataset(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	result.fill(ds)
	slog.InfoContext(ctx, "STOW-RS upload complete",
		"statusCode", resp.StatusCode, "stored", len(result.Stored), "failed", len(result.Failed))
	return result, nil
}

func (r *StoreResult) fill(ds dicomjson.Dataset) {
	r.Dataset = ds
	r.RetrieveURL = ds.Text(tag.RetrieveURL)
	for _, item := range ds.Items(tag.ReferencedSOPSequence) {
		r.Stored = append(r.Stored, StoredInstance{
			SOPClassUID:    item.Text(tag.ReferencedSOPClassUID),
			SOPInstanceUID: item.Text(tag.ReferencedSOPInstanceUID),
			RetrieveURL:    item.Text(tag.RetrieveURL),
			WarningReason:  item.Text(tag.WarningReason),
		})
	}
	for _, item := range ds.Items(tag.FailedSOPSequence) {
		r.Failed = append(r.Failed, FailedInstance{
			SOPClassUID:    item.Text(tag.ReferencedSOPClassUID),
			SOPInstanceUID: item.Text(tag.ReferencedSOPInstanceUID),
			FailureReason:  item.Text(tag.FailureReason),
		})
	}
}

// StoreReply is the deferred result of StoreAsync
type StoreReply struct {
	Result *StoreResult
	Err    error
}

// StoreAsync runs Store on its own goroutine. The channel yields exactly
// one reply and is then closed.
func (c *Client) StoreAsync(ctx context.Context, payload []byte, opts StoreOptions) <-chan StoreReply {
	ch := make(chan StoreReply, 1)
	go func() {
		defer close(ch)
		result, err := c.Store(ctx, payload, opts)
		ch <- StoreReply{Result: result, Err: err}
	}()
	return ch
}
