package dicomjson

import (
	"sort"
	"strings"

	"github.com/jpfielding/dicomweb.go/pkg/dicomweb/tag"
	"github.com/jpfielding/dicomweb.go/pkg/dicomweb/vr"
)

// SeriesSummary holds the fields a series search result is listed with
type SeriesSummary struct {
	PatientID         string `json:"patientId"`
	PatientName       string `json:"patientName"`
	StudyDescription  string `json:"studyDescription"`
	SeriesDescription string `json:"seriesDescription"`
	RetrieveURL       string `json:"retrieveUrl"`
	Instances         string `json:"numberOfInstances,omitempty"`
}

// Summarize extracts the summary fields, leaving unpopulated ones empty
func Summarize(ds Dataset) SeriesSummary {
	return SeriesSummary{
		PatientID:         ds.Text(tag.PatientID),
		PatientName:       ds.Text(tag.PatientName),
		StudyDescription:  ds.Text(tag.StudyDescription),
		SeriesDescription: ds.Text(tag.SeriesDescription),
		RetrieveURL:       ds.Text(tag.RetrieveURL),
		Instances:         ds.Text(tag.NumberOfSeriesRelatedInstances),
	}
}

// String is the one line listing: patient ID - patient name - study
// description - series description - URL
func (s SeriesSummary) String() string {
	return strings.Join([]string{
		s.PatientID, s.PatientName, s.StudyDescription, s.SeriesDescription, s.RetrieveURL,
	}, " - ")
}

// Attribute is one dataset entry in display form
type Attribute struct {
	Key  string
	Tag  tag.Tag
	Name string
	VR   vr.VR
	Text string
}

// Attributes lists every attribute of ds in key order. Keys that are not
// 8 hex digits keep a zero Tag and no Name.
func Attributes(ds Dataset) []Attribute {
	out := make([]Attribute, 0, len(ds))
	for key, el := range ds {
		a := Attribute{Key: key, VR: el.VR, Text: StringValue(ds, key)}
		if t, err := tag.Parse(key); err == nil {
			a.Tag = t
			a.Name = t.LookupName()
			if a.Name == "" && t.IsPrivate() {
				a.Name = "Private"
			}
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return tag.NormalizeKey(out[i].Key) < tag.NormalizeKey(out[j].Key)
	})
	return out
}
