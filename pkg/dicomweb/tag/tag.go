// Package tag defines the DICOM tags a DICOMweb client reads and writes
package tag

import (
	"fmt"
	"strconv"
	"strings"
)

// Tag represents a DICOM tag with Group and Element
type Tag struct {
	Group   uint16
	Element uint16
}

// New creates a new Tag
func New(group, element uint16) Tag {
	return Tag{Group: group, Element: element}
}

// Parse reads the 8 hex digit DICOM-JSON keyword form ("0008103E").
// Lower case digits are accepted.
func Parse(s string) (Tag, error) {
	if len(s) != 8 {
		return Tag{}, fmt.Errorf("tag %q: want 8 hex digits, got %d chars", s, len(s))
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Tag{}, fmt.Errorf("tag %q: %w", s, err)
	}
	return New(uint16(v>>16), uint16(v)), nil
}

// Key returns the DICOM-JSON attribute key: 8 upper case hex digits
func (t Tag) Key() string {
	return fmt.Sprintf("%04X%04X", t.Group, t.Element)
}

// IsPrivate returns true if this is a private tag (odd group number)
func (t Tag) IsPrivate() bool {
	return t.Group%2 == 1
}

// NormalizeKey upper cases a tag key so "0008103e" and "0008103E" match
func NormalizeKey(key string) string {
	return strings.ToUpper(key)
}

// Patient Module (Group 0010)
var (
	PatientName      = Tag{0x0010, 0x0010}
	PatientID        = Tag{0x0010, 0x0020}
	PatientBirthDate = Tag{0x0010, 0x0030}
	PatientSex       = Tag{0x0010, 0x0040}
)

// General Study Module (Group 0008, 0020)
var (
	StudyDate        = Tag{0x0008, 0x0020}
	StudyTime        = Tag{0x0008, 0x0030}
	AccessionNumber  = Tag{0x0008, 0x0050}
	StudyDescription = Tag{0x0008, 0x1030}
	StudyInstanceUID = Tag{0x0020, 0x000D}
	StudyID          = Tag{0x0020, 0x0010}
)

// General Series Module
var (
	Modality          = Tag{0x0008, 0x0060}
	SeriesInstanceUID = Tag{0x0020, 0x000E}
	SeriesNumber      = Tag{0x0020, 0x0011}
	InstanceNumber    = Tag{0x0020, 0x0013}
	SeriesDescription = Tag{0x0008, 0x103E}
)

// SOP Common Module
var (
	SOPClassUID    = Tag{0x0008, 0x0016}
	SOPInstanceUID = Tag{0x0008, 0x0018}
)

// DICOMweb response attributes (PS3.18)
var (
	RetrieveURL              = Tag{0x0008, 0x1190} // UR - WADO-RS URL of the resource
	ReferencedSOPClassUID    = Tag{0x0008, 0x1150} // UI
	ReferencedSOPInstanceUID = Tag{0x0008, 0x1155} // UI
	WarningReason            = Tag{0x0008, 0x1196} // US
	FailureReason            = Tag{0x0008, 0x1197} // US
	FailedSOPSequence        = Tag{0x0008, 0x1198} // SQ - instances the STOW-RS server rejected
	ReferencedSOPSequence    = Tag{0x0008, 0x1199} // SQ - instances the STOW-RS server stored
)

// QIDO-RS computed attributes
var (
	NumberOfStudyRelatedSeries     = Tag{0x0020, 0x1206}
	NumberOfStudyRelatedInstances  = Tag{0x0020, 0x1208}
	NumberOfSeriesRelatedInstances = Tag{0x0020, 0x1209}
)

// LookupName returns a human-readable name for common tags
func (t Tag) LookupName() string {
	switch t {
	case PatientName:
		return "PatientName"
	case PatientID:
		return "PatientID"
	case StudyDescription:
		return "StudyDescription"
	case SeriesDescription:
		return "SeriesDescription"
	case StudyInstanceUID:
		return "StudyInstanceUID"
	case SeriesInstanceUID:
		return "SeriesInstanceUID"
	case SOPInstanceUID:
		return "SOPInstanceUID"
	case Modality:
		return "Modality"
	case StudyDate:
		return "StudyDate"
	case AccessionNumber:
		return "AccessionNumber"
	case SOPClassUID:
		return "SOPClassUID"
	case NumberOfStudyRelatedSeries:
		return "NumberOfStudyRelatedSeries"
	case NumberOfStudyRelatedInstances:
		return "NumberOfStudyRelatedInstances"
	case NumberOfSeriesRelatedInstances:
		return "NumberOfSeriesRelatedInstances"
	case RetrieveURL:
		return "RetrieveURL"
	case ReferencedSOPSequence:
		return "ReferencedSOPSequence"
	case FailedSOPSequence:
		return "FailedSOPSequence"
	default:
		return ""
	}
}
