package dicomweb

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/jpfielding/dicomweb.go/pkg/dicomweb/dicomjson"
)

// Level is the QIDO-RS resource searched
type Level string

const (
	Studies   Level = "studies"
	Series    Level = "series"
	Instances Level = "instances"
)

// ParseLevel accepts studies, series or instances
func ParseLevel(s string) (Level, error) {
	switch l := Level(s); l {
	case Studies, Series, Instances:
		return l, nil
	}
	return "", fmt.Errorf("unknown QIDO-RS level %q (studies|series|instances)", s)
}

// Search runs a QIDO-RS query. params go on the query string as given,
// one per matching attribute (PatientID=PAT001, 0008103E=AX*, limit=10).
func (c *Client) Search(ctx context.Context, level Level, params url.Values) ([]dicomjson.Dataset, error) {
	return c.SearchWithin(ctx, Resource{}, level, params)
}

// SearchWithin runs a QIDO-RS query below a study or series, e.g. the
// series of one study ({base}/studies/{uid}/series). The level must lie
// beneath the scope and an instance cannot be a scope.
func (c *Client) SearchWithin(ctx context.Context, scope Resource, level Level, params url.Values) ([]dicomjson.Dataset, error) {
	if _, err := ParseLevel(string(level)); err != nil {
		return nil, err
	}
	switch {
	case scope.SOPInstanceUID != "":
		return nil, fmt.Errorf("%w: cannot search within instance %s", ErrInvalidResource, scope.SOPInstanceUID)
	case scope.SeriesInstanceUID != "" && level != Instances:
		return nil, fmt.Errorf("%w: only instances can be searched within a series", ErrInvalidResource)
	case scope.StudyInstanceUID != "" && level == Studies:
		return nil, fmt.Errorf("%w: studies cannot be searched within a study", ErrInvalidResource)
	}
	elem, err := scope.path()
	if err != nil {
		return nil, err
	}
	target, err := c.endpoint(append(elem, string(level))...)
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Accept", acceptJSON)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	results, err := dicomjson.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", level, err)
	}
	slog.DebugContext(ctx, "QIDO-RS search complete", "scope", scope.String(), "level", level, "results", len(results))
	return results, nil
}

// SearchReply is the deferred result of SearchAsync
type SearchReply struct {
	Results []dicomjson.Dataset
	Err     error
}

// SearchAsync runs Search on its own goroutine. The channel yields exactly
// one reply and is then closed.
func (c *Client) SearchAsync(ctx context.Context, level Level, params url.Values) <-chan SearchReply {
	ch := make(chan SearchReply, 1)
	go func() {
		defer close(ch)
		results, err := c.Search(ctx, level, params)
		ch <- SearchReply{Results: results, Err: err}
	}()
	return ch
}
