package tag

import (
	"encoding/json"
	"fmt"
)

// String returns a string representation of the Tag (GGGG,EEEE)
func (t Tag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.Group, t.Element)
}

// MarshalJSON returns a JSON representation of the Tag
func (t Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// MarshalText renders the DICOM-JSON key so a Tag can key a JSON object
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.Key()), nil
}

// UnmarshalText accepts the DICOM-JSON key form
func (t *Tag) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
