// Package vr defines DICOM Value Representations as they appear in DICOM-JSON
package vr

// VR represents a DICOM Value Representation
type VR string

// Standard DICOM Value Representations
const (
	AE VR = "AE" // Application Entity
	AS VR = "AS" // Age String
	AT VR = "AT" // Attribute Tag
	CS VR = "CS" // Code String
	DA VR = "DA" // Date
	DS VR = "DS" // Decimal String
	DT VR = "DT" // DateTime
	FL VR = "FL" // Floating Point Single
	FD VR = "FD" // Floating Point Double
	IS VR = "IS" // Integer String
	LO VR = "LO" // Long String
	LT VR = "LT" // Long Text
	OB VR = "OB" // Other Byte String
	OD VR = "OD" // Other Double String
	OF VR = "OF" // Other Float String
	OL VR = "OL" // Other Long
	OV VR = "OV" // Other 64-bit Very Long
	OW VR = "OW" // Other Word String
	PN VR = "PN" // Person Name
	SH VR = "SH" // Short String
	SL VR = "SL" // Signed Long
	SQ VR = "SQ" // Sequence of Items
	SS VR = "SS" // Signed Short
	ST VR = "ST" // Short Text
	SV VR = "SV" // Signed 64-bit Very Long
	TM VR = "TM" // Time
	UC VR = "UC" // Unlimited Characters
	UI VR = "UI" // Unique Identifier
	UL VR = "UL" // Unsigned Long
	UN VR = "UN" // Unknown
	UR VR = "UR" // Universal Resource Identifier
	US VR = "US" // Unsigned Short
	UT VR = "UT" // Unlimited Text
	UV VR = "UV" // Unsigned 64-bit Very Long
)

// IsString returns true if the JSON Value array holds strings
func (v VR) IsString() bool {
	switch v {
	case AE, AS, AT, CS, DA, DT, LO, LT, SH, ST, TM, UC, UI, UR, UT:
		return true
	default:
		return false
	}
}

// IsNumber returns true if the JSON Value array holds numbers.
// DS and IS are strings on the wire but numbers in DICOM-JSON.
func (v VR) IsNumber() bool {
	switch v {
	case DS, FL, FD, IS, SL, SS, SV, UL, US, UV:
		return true
	default:
		return false
	}
}

// IsBinary returns true if the element carries InlineBinary or BulkDataURI
// instead of a Value array
func (v VR) IsBinary() bool {
	switch v {
	case OB, OD, OF, OL, OV, OW, UN:
		return true
	default:
		return false
	}
}

// IsPersonName returns true for PN, whose values are component objects
func (v VR) IsPersonName() bool {
	return v == PN
}

// IsSequence returns true if this is a sequence VR
func (v VR) IsSequence() bool {
	return v == SQ
}
