package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList stores a JSON array in a text column so the same models work
// on postgres and the in-memory sqlite used by tests.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// AttributeList is the set of named attributes of a product variation,
// e.g. {name:"Color", value:"Red"}.
type AttributeList []Attribute

func (l AttributeList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *AttributeList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// VariationSnapshot freezes the chosen variation on an order line. Empty ID
// means the line was ordered without a variation.
type VariationSnapshot struct {
	VariationID uint          `json:"variation_id,omitempty"`
	Attributes  AttributeList `json:"attributes,omitempty"`
}

func (v VariationSnapshot) Value() (driver.Value, error) {
	b, err := json.Marshal(v)
	return string(b), err
}

func (v *VariationSnapshot) Scan(src interface{}) error {
	return scanJSON(src, v)
}

func scanJSON(src, dst interface{}) error {
	switch s := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(s) == 0 {
			return nil
		}
		return json.Unmarshal(s, dst)
	case string:
		if s == "" {
			return nil
		}
		return json.Unmarshal([]byte(s), dst)
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dst)
	}
}
