package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Label is a mood tag. Only the six values below are valid.
type Label string

const (
	LabelFun        Label = "Fun"
	LabelSadness    Label = "Sadness"
	LabelAngry      Label = "Angry"
	LabelLove       Label = "Love"
	LabelGeneral    Label = "General"
	LabelMotivation Label = "Motivation"
)

// AllLabels lists the enumeration in display order.
var AllLabels = []Label{LabelFun, LabelSadness, LabelAngry, LabelLove, LabelGeneral, LabelMotivation}

// Valid reports whether l is part of the enumeration. Matching is case-sensitive.
func (l Label) Valid() bool {
	for _, known := range AllLabels {
		if l == known {
			return true
		}
	}
	return false
}

// LabelList is stored as a JSON array column.
type LabelList []Label

// Scan implements sql.Scanner.
func (l *LabelList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported label list type %T", value)
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*l = nil
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Value implements driver.Valuer.
func (l LabelList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Contains reports whether label is present.
func (l LabelList) Contains(label Label) bool {
	for _, v := range l {
		if v == label {
			return true
		}
	}
	return false
}

// Intersects reports whether any of labels is present.
func (l LabelList) Intersects(labels []Label) bool {
	for _, label := range labels {
		if l.Contains(label) {
			return true
		}
	}
	return false
}
