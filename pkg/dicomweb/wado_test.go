package dicomweb

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/jpfielding/dicomweb.go/pkg/dicomweb/multipart"
	"github.com/jpfielding/dicomweb.go/pkg/dicomweb/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResource_Path(t *testing.T) {
	tests := []struct {
		name    string
		res     Resource
		want    string
		wantErr bool
	}{
		{"Root", Resource{}, "/", false},
		{"Study", Resource{StudyInstanceUID: "1.2"}, "studies/1.2", false},
		{"Series", Resource{StudyInstanceUID: "1.2", SeriesInstanceUID: "1.2.3"}, "studies/1.2/series/1.2.3", false},
		{"Instance", Resource{"1.2", "1.2.3", "1.2.3.4"}, "studies/1.2/series/1.2.3/instances/1.2.3.4", false},
		{"SeriesWithoutStudy", Resource{SeriesInstanceUID: "1.2.3"}, "", true},
		{"InstanceWithoutSeries", Resource{StudyInstanceUID: "1.2", SOPInstanceUID: "1.2.3.4"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.res.path()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidResource)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.res.String())
		})
	}
}

func TestSearchWithin(t *testing.T) {
	var paths pathLog
	cl := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths.add(r.URL.Path)
		assert.Equal(t, "CT", r.URL.Query().Get("Modality"))
		io.WriteString(w, seriesResponse)
	})
	params := url.Values{"Modality": {"CT"}}
	ctx := context.Background()

	results, err := cl.SearchWithin(ctx, Resource{StudyInstanceUID: "1.2"}, Series, params)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	_, err = cl.SearchWithin(ctx, Resource{StudyInstanceUID: "1.2"}, Instances, params)
	require.NoError(t, err)
	_, err = cl.SearchWithin(ctx, Resource{StudyInstanceUID: "1.2", SeriesInstanceUID: "1.2.3"}, Instances, params)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/dicom-web/studies/1.2/series",
		"/dicom-web/studies/1.2/instances",
		"/dicom-web/studies/1.2/series/1.2.3/instances",
	}, paths.list())
}

func TestSearchWithin_Invalid(t *testing.T) {
	cl := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})
	ctx := context.Background()

	tests := []struct {
		name  string
		scope Resource
		level Level
	}{
		{"StudiesInStudy", Resource{StudyInstanceUID: "1.2"}, Studies},
		{"SeriesInSeries", Resource{StudyInstanceUID: "1.2", SeriesInstanceUID: "1.2.3"}, Series},
		{"InInstance", Resource{"1.2", "1.2.3", "1.2.3.4"}, Instances},
		{"SeriesWithoutStudy", Resource{SeriesInstanceUID: "1.2.3"}, Instances},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cl.SearchWithin(ctx, tt.scope, tt.level, nil)
			assert.ErrorIs(t, err, ErrInvalidResource)
		})
	}
	_, err := cl.SearchWithin(ctx, Resource{}, Level("patients"), nil)
	assert.Error(t, err)
}

func TestRetrieveSeriesAndInstance(t *testing.T) {
	cl := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, acceptMultipart, r.Header.Get("Accept"))
		w.Header().Set("Content-Type", multipart.ContentType(multipart.DICOM, "XYZ"))
		w.Write(multipart.Encode([]byte(r.URL.Path), multipart.DICOM, "XYZ"))
	})
	ctx := context.Background()

	parts, err := cl.RetrieveSeries(ctx, "1.2", "1.2.3")
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "/dicom-web/studies/1.2/series/1.2.3", string(parts[0].Data))

	parts, err = cl.RetrieveInstance(ctx, "1.2", "1.2.3", "1.2.3.4")
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "/dicom-web/studies/1.2/series/1.2.3/instances/1.2.3.4", string(parts[0].Data))

	_, err = cl.RetrieveSeries(ctx, "1.2", "")
	assert.ErrorIs(t, err, ErrInvalidResource)
	_, err = cl.RetrieveInstance(ctx, "1.2", "1.2.3", "")
	assert.ErrorIs(t, err, ErrInvalidResource)
	_, err = cl.RetrieveSeries(ctx, "", "1.2.3")
	assert.ErrorIs(t, err, ErrInvalidResource)
}

func TestRetrieveMetadata(t *testing.T) {
	var paths pathLog
	cl := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths.add(r.URL.Path)
		assert.Equal(t, acceptJSON, r.Header.Get("Accept"))
		io.WriteString(w, seriesResponse)
	})
	ctx := context.Background()

	for _, res := range []Resource{
		{StudyInstanceUID: "1.2"},
		{StudyInstanceUID: "1.2", SeriesInstanceUID: "1.2.3"},
		{StudyInstanceUID: "1.2", SeriesInstanceUID: "1.2.3", SOPInstanceUID: "1.2.3.4"},
	} {
		datasets, err := cl.RetrieveMetadata(ctx, res)
		require.NoError(t, err)
		require.Len(t, datasets, 2)
		assert.Equal(t, "Doe^Jane", datasets[0].Text(tag.PatientName))
	}
	assert.Equal(t, []string{
		"/dicom-web/studies/1.2/metadata",
		"/dicom-web/studies/1.2/series/1.2.3/metadata",
		"/dicom-web/studies/1.2/series/1.2.3/instances/1.2.3.4/metadata",
	}, paths.list())

	_, err := cl.RetrieveMetadata(ctx, Resource{})
	assert.ErrorIs(t, err, ErrInvalidResource)
}

// pathLog records request paths from handler goroutines
type pathLog struct {
	mu    sync.Mutex
	paths []string
}

func (l *pathLog) add(p string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = append(l.paths, p)
}

func (l *pathLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.paths...)
}
