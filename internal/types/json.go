// Package types defines the data structures shared across service modules.
package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSON is a generic JSON document stored as a single database column.
type JSON map[string]any

// Value implements driver.Valuer so JSON can be written directly by gorm.
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner so JSON can be read directly by gorm.
func (j *JSON) Scan(value any) error {
	if value == nil {
		*j = JSON{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("types.JSON: unsupported scan source")
		}
		b = []byte(s)
	}
	if len(b) == 0 {
		*j = JSON{}
		return nil
	}
	return json.Unmarshal(b, j)
}

// StringList is a []string stored as a JSON array column.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

func (s *StringList) Scan(value any) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("types.StringList: unsupported scan source")
		}
		b = []byte(str)
	}
	if len(b) == 0 {
		*s = StringList{}
		return nil
	}
	return json.Unmarshal(b, s)
}

// Contains reports whether v is present in the list.
func (s StringList) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

// Intersects reports whether s and other share at least one element.
func (s StringList) Intersects(other StringList) bool {
	if len(s) == 0 || len(other) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(other))
	for _, v := range other {
		set[v] = struct{}{}
	}
	for _, v := range s {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}
