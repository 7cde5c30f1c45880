package dicomjson

import (
	"testing"

	"github.com/jpfielding/dicomweb.go/pkg/dicomweb/tag"
	"github.com/jpfielding/dicomweb.go/pkg/dicomweb/vr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	ds := mustDataset(t, `{
		"00100020": {"vr": "LO", "Value": ["PAT001"]},
		"00100010": {"vr": "PN", "Value": [{"Alphabetic": "Doe^Jane"}]},
		"00081030": {"vr": "LO", "Value": ["Chest"]},
		"00081190": {"vr": "UR", "Value": ["http://localhost:8042/dicom-web/studies/1.2/series/1.2.3"]}
	}`)

	s := Summarize(ds)
	assert.Equal(t, SeriesSummary{
		PatientID:        "PAT001",
		PatientName:      "Doe^Jane",
		StudyDescription: "Chest",
		RetrieveURL:      "http://localhost:8042/dicom-web/studies/1.2/series/1.2.3",
	}, s)
	assert.Equal(t, "PAT001 - Doe^Jane - Chest -  - http://localhost:8042/dicom-web/studies/1.2/series/1.2.3", s.String())
}

func TestSummarize_InstanceCount(t *testing.T) {
	ds := mustDataset(t, `{"00201209": {"vr": "IS", "Value": [12]}}`)
	s := Summarize(ds)
	assert.Equal(t, "12", s.Instances)
	assert.Equal(t, " -  -  -  - ", s.String())
}

func TestAttributes(t *testing.T) {
	ds := mustDataset(t, `{
		"00100020": {"vr": "LO", "Value": ["PAT001"]},
		"00291010": {"vr": "OB", "BulkDataURI": "http://pacs/bulk/1"},
		"00081030": {"vr": "LO", "Value": ["Chest"]},
		"00091001": {"vr": "LO", "Value": ["vendor"]},
		"00080021": {"vr": "DA", "Value": ["20240101"]},
		"nonsense": {"vr": "LO", "Value": ["x"]}
	}`)

	attrs := Attributes(ds)
	require.Len(t, attrs, 6)
	keys := make([]string, len(attrs))
	for i, a := range attrs {
		keys[i] = a.Key
	}
	assert.Equal(t, []string{"00080021", "00081030", "00091001", "00100020", "00291010", "nonsense"}, keys)

	assert.Equal(t, Attribute{Key: "00081030", Tag: tag.StudyDescription, Name: "StudyDescription", VR: vr.LO, Text: "Chest"}, attrs[1])
	assert.Equal(t, "Private", attrs[2].Name)
	assert.Equal(t, "", attrs[0].Name)
	assert.Equal(t, "http://pacs/bulk/1", attrs[4].Text)
	assert.Equal(t, tag.Tag{}, attrs[5].Tag)
	assert.Equal(t, "x", attrs[5].Text)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, SeriesSummary{}, Summarize(Dataset{}))
	assert.Equal(t, " -  -  -  - ", SeriesSummary{}.String())
}
