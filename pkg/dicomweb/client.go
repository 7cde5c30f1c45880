// Package dicomweb is a client for the DICOMweb services of a PACS:
// QIDO-RS search, STOW-RS store and WADO-RS retrieve.
package dicomweb

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	acceptJSON      = "application/json"
	acceptMultipart = `multipart/related; type="application/dicom"`

	// errorBodyLimit caps how much of a failed response is kept
	errorBodyLimit = 1024
)

// StatusError is returned when the server answers outside 2xx
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Client talks to one DICOMweb service root, e.g.
// http://localhost:8042/dicom-web
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

// NewClient creates a client with a default HTTP client
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTPClient creates a client with a specific *http.Client,
// for instance one with an instrumented transport
func NewClientWithHTTPClient(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		BaseURL:    baseURL,
		httpClient: client,
	}
}

func (c *Client) endpoint(elem ...string) (string, error) {
	target, err := url.JoinPath(c.BaseURL, elem...)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", c.BaseURL, err)
	}
	return target, nil
}

// do sends req and returns the response when the status is 2xx. Any other
// status is read into a *StatusError and the body closed.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "DICOMweb request failed", "method", req.Method, "url", req.URL.String(), "error", err)
		return nil, fmt.Errorf("failed to execute %s %s: %w", req.Method, req.URL, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		slog.DebugContext(ctx, "DICOMweb response", "method", req.Method, "url", req.URL.String(), "statusCode", resp.StatusCode)
		return resp, nil
	}
	defer resp.Body.Close()
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	slog.ErrorContext(ctx, "DICOMweb server returned non-OK status",
		"method", req.Method, "url", req.URL.String(), "statusCode", resp.StatusCode, "responseBody", string(bodyBytes))
	return nil, &StatusError{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       string(bodyBytes),
	}
}
