// Package dicomjson reads the DICOM-JSON model (PS3.18 Annex F) returned by
// QIDO-RS searches and STOW-RS responses.
//
// Lookups never fail: an attribute that is absent, has no Value, has an
// empty Value or a Value that is not an array all read as the empty string.
package dicomjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jpfielding/dicomweb.go/pkg/dicomweb/tag"
	"github.com/jpfielding/dicomweb.go/pkg/dicomweb/vr"
)

// Empty is what lookups return when an attribute has no value
const Empty = ""

// Element is one attribute of a dataset. Value is kept undecoded and
// UnmarshalJSON never fails, so a malformed attribute reads as empty
// instead of failing the decode of the whole response.
type Element struct {
	VR           vr.VR           `json:"vr"`
	Value        json.RawMessage `json:"Value,omitempty"`
	InlineBinary string          `json:"InlineBinary,omitempty"`
	BulkDataURI  string          `json:"BulkDataURI,omitempty"`
}

// UnmarshalJSON decodes the members it can. An attribute that is not an
// object, or a member of the wrong type, is left at its zero value.
func (e *Element) UnmarshalJSON(raw []byte) error {
	*e = Element{}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil
	}
	e.VR = vr.VR(member(members, "vr"))
	e.Value = members["Value"]
	e.InlineBinary = member(members, "InlineBinary")
	e.BulkDataURI = member(members, "BulkDataURI")
	return nil
}

// member is the string value of an object member, "" when absent or not a string
func member(members map[string]json.RawMessage, name string) string {
	var s string
	if err := json.Unmarshal(members[name], &s); err != nil {
		return ""
	}
	return s
}

// Dataset maps 8 hex digit tag keys ("00100020") to elements
type Dataset map[string]Element

// Decode reads a QIDO-RS response body: a JSON array of datasets.
// An empty body, as sent with 204 No Content, is an empty result.
func Decode(r io.Reader) ([]Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []Dataset{}, nil
	}
	var out []Dataset
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode DICOM-JSON array: %w", err)
	}
	return out, nil
}

// DecodeDataset reads a single DICOM-JSON object, as a STOW-RS response is
func DecodeDataset(r io.Reader) (Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("failed to decode DICOM-JSON object: %w", err)
	}
	return ds, nil
}

// FirstValue returns the first entry of the attribute's Value array, or
// Empty. Strings come back as string, numbers as json.Number, person names
// and sequence items as map[string]any. A null entry reads as Empty.
func FirstValue(ds Dataset, key string) any {
	values := rawValues(ds, key)
	if len(values) == 0 {
		return Empty
	}
	v, err := decodeValue(values[0])
	if err != nil || v == nil {
		return Empty
	}
	return v
}

// Values decodes the attribute's whole Value array, nil when there is none
func Values(ds Dataset, key string) []any {
	raws := rawValues(ds, key)
	if len(raws) == 0 {
		return nil
	}
	out := make([]any, 0, len(raws))
	for _, raw := range raws {
		v, err := decodeValue(raw)
		if err != nil {
			return nil
		}
		out = append(out, v)
	}
	return out
}

// StringValue renders the first value for display. Person names use their
// Alphabetic, then Ideographic, then Phonetic component. Binary attributes
// render as their BulkDataURI, or the base64 InlineBinary. Sequences have
// no display form and read as Empty.
func StringValue(ds Dataset, key string) string {
	el, ok := lookup(ds, key)
	if !ok {
		return Empty
	}
	switch {
	case el.VR.IsSequence():
		return Empty
	case el.VR.IsBinary() && len(rawValues(ds, key)) == 0:
		if el.BulkDataURI != "" {
			return el.BulkDataURI
		}
		return el.InlineBinary
	}
	switch v := FirstValue(ds, key).(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case map[string]any:
		if el.VR != "" && !el.VR.IsPersonName() {
			return Empty
		}
		for _, group := range []string{"Alphabetic", "Ideographic", "Phonetic"} {
			if s, ok := v[group].(string); ok && s != "" {
				return s
			}
		}
	}
	return Empty
}

// Sequence returns the items of an SQ attribute
func Sequence(ds Dataset, key string) []Dataset {
	raws := rawValues(ds, key)
	items := make([]Dataset, 0, len(raws))
	for _, raw := range raws {
		var item Dataset
		if err := json.Unmarshal(raw, &item); err != nil || item == nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

// First is FirstValue keyed by tag
func (d Dataset) First(t tag.Tag) any {
	return FirstValue(d, t.Key())
}

// Text is StringValue keyed by tag
func (d Dataset) Text(t tag.Tag) string {
	return StringValue(d, t.Key())
}

// Items is Sequence keyed by tag
func (d Dataset) Items(t tag.Tag) []Dataset {
	return Sequence(d, t.Key())
}

// Set stores values under t, replacing any existing element. Values must
// match the VR's DICOM-JSON class: strings, numbers, person names (a string
// is taken as the Alphabetic group) or Dataset items. A nil value is null.
func (d Dataset) Set(t tag.Tag, v vr.VR, values ...any) error {
	el := Element{VR: v}
	if len(values) > 0 {
		if v.IsBinary() {
			return fmt.Errorf("%s: %s carries InlineBinary or BulkDataURI, not values", t, v)
		}
		out := make([]any, len(values))
		for i, val := range values {
			conv, err := jsonValue(v, val)
			if err != nil {
				return fmt.Errorf("%s value %d: %w", t, i, err)
			}
			out[i] = conv
		}
		raw, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("failed to encode %s values: %w", t, err)
		}
		el.Value = raw
	}
	d[t.Key()] = el
	return nil
}

func lookup(ds Dataset, key string) (Element, bool) {
	if el, ok := ds[key]; ok {
		return el, true
	}
	el, ok := ds[tag.NormalizeKey(key)]
	return el, ok
}

// rawValues is the three step guard: the key exists, it has a Value, and
// that Value is a non-empty array
func rawValues(ds Dataset, key string) []json.RawMessage {
	el, ok := lookup(ds, key)
	if !ok || len(el.Value) == 0 {
		return nil
	}
	var values []json.RawMessage
	if err := json.Unmarshal(el.Value, &values); err != nil {
		return nil
	}
	return values
}

func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func jsonValue(v vr.VR, val any) (any, error) {
	if val == nil {
		return nil, nil
	}
	switch {
	case v.IsPersonName():
		switch pn := val.(type) {
		case string:
			return map[string]string{"Alphabetic": pn}, nil
		case map[string]string, map[string]any:
			return pn, nil
		}
	case v.IsSequence():
		if _, ok := val.(Dataset); ok {
			return val, nil
		}
	case v.IsNumber():
		switch val.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
			return val, nil
		}
	case v.IsString():
		if _, ok := val.(string); ok {
			return val, nil
		}
	default:
		return val, nil
	}
	return nil, fmt.Errorf("%T is not a %s value", val, v)
}
