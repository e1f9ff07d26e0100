package models

import (
	"bytes"
	"encoding/json"
)

// OptionalString records whether a JSON field was sent at all:
//   - Present=false: field absent
//   - Present=true, Value=nil: field was null
//   - Present=true, Value!=nil: field had a string
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON only runs when the field is present.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

func (o OptionalString) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}
