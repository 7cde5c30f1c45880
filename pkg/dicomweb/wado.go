package dicomweb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jpfielding/dicomweb.go/pkg/dicomweb/dicomjson"
	"github.com/jpfielding/dicomweb.go/pkg/dicomweb/multipart"
)

var ErrInvalidResource = errors.New("invalid DICOMweb resource")

// Resource addresses a study, a series of that study or an instance of
// that series. The zero Resource is the service root.
type Resource struct {
	StudyInstanceUID  string
	SeriesInstanceUID string
	SOPInstanceUID    string
}

// path is the resource below the service root, e.g.
// studies/{study}/series/{series}
func (r Resource) path() ([]string, error) {
	switch {
	case r.SOPInstanceUID != "" && r.SeriesInstanceUID == "":
		return nil, fmt.Errorf("%w: instance %s without a series", ErrInvalidResource, r.SOPInstanceUID)
	case r.SeriesInstanceUID != "" && r.StudyInstanceUID == "":
		return nil, fmt.Errorf("%w: series %s without a study", ErrInvalidResource, r.SeriesInstanceUID)
	}
	var elem []string
	if r.StudyInstanceUID != "" {
		elem = append(elem, string(Studies), r.StudyInstanceUID)
	}
	if r.SeriesInstanceUID != "" {
		elem = append(elem, string(Series), r.SeriesInstanceUID)
	}
	if r.SOPInstanceUID != "" {
		elem = append(elem, string(Instances), r.SOPInstanceUID)
	}
	return elem, nil
}

func (r Resource) String() string {
	elem, err := r.path()
	if err != nil || len(elem) == 0 {
		return "/"
	}
	return strings.Join(elem, "/")
}

// Retrieve downloads every instance under res with WADO-RS and returns the
// Part 10 files in the order the server sent them
func (c *Client) Retrieve(ctx context.Context, res Resource) ([]multipart.Part, error) {
	if res.StudyInstanceUID == "" {
		return nil, fmt.Errorf("%w: studyUID cannot be empty", ErrInvalidResource)
	}
	elem, err := res.path()
	if err != nil {
		return nil, err
	}
	target, err := c.endpoint(elem...)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrieve request: %w", err)
	}
	req.Header.Set("Accept", acceptMultipart)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	parts, err := multipart.ReadParts(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("retrieve %s: %w", res, err)
	}
	slog.DebugContext(ctx, "WADO-RS retrieve complete", "resource", res.String(), "instances", len(parts))
	return parts, nil
}

// RetrieveStudy downloads every instance of a study
func (c *Client) RetrieveStudy(ctx context.Context, studyUID string) ([]multipart.Part, error) {
	return c.Retrieve(ctx, Resource{StudyInstanceUID: studyUID})
}

// RetrieveSeries downloads every instance of a series
func (c *Client) RetrieveSeries(ctx context.Context, studyUID, seriesUID string) ([]multipart.Part, error) {
	if seriesUID == "" {
		return nil, fmt.Errorf("%w: seriesUID cannot be empty", ErrInvalidResource)
	}
	return c.Retrieve(ctx, Resource{StudyInstanceUID: studyUID, SeriesInstanceUID: seriesUID})
}

// RetrieveInstance downloads one instance. Servers answer with a
// multipart body holding a single part.
func (c *Client) RetrieveInstance(ctx context.Context, studyUID, seriesUID, sopUID string) ([]multipart.Part, error) {
	if seriesUID == "" || sopUID == "" {
		return nil, fmt.Errorf("%w: seriesUID and sopUID cannot be empty", ErrInvalidResource)
	}
	return c.Retrieve(ctx, Resource{StudyInstanceUID: studyUID, SeriesInstanceUID: seriesUID, SOPInstanceUID: sopUID})
}

// RetrieveMetadata fetches {resource}/metadata: one DICOM-JSON dataset per
// instance, without bulk data
func (c *Client) RetrieveMetadata(ctx context.Context, res Resource) ([]dicomjson.Dataset, error) {
	if res.StudyInstanceUID == "" {
		return nil, fmt.Errorf("%w: studyUID cannot be empty", ErrInvalidResource)
	}
	elem, err := res.path()
	if err != nil {
		return nil, err
	}
	target, err := c.endpoint(append(elem, "metadata")...)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata request: %w", err)
	}
	req.Header.Set("Accept", acceptJSON)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	datasets, err := dicomjson.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("metadata %s: %w", res, err)
	}
	slog.DebugContext(ctx, "WADO-RS metadata complete", "resource", res.String(), "instances", len(datasets))
	return datasets, nil
}
