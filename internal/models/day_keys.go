package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// DayKeys is a set of YYYY-MM-DD calendar-day keys. It is stored as a
// postgres text[] and as the same array literal text under sqlite.
type DayKeys []string

// Has reports whether key is in the set.
func (d DayKeys) Has(key string) bool {
	return slices.Contains(d, key)
}

// Toggle returns a copy with key added when absent or removed when present.
func (d DayKeys) Toggle(key string) DayKeys {
	out := make(DayKeys, 0, len(d)+1)
	found := false
	for _, k := range d {
		if k == key {
			found = true
			continue
		}
		out = append(out, k)
	}
	if !found {
		out = append(out, key)
	}
	return out
}

// Clone returns an independent copy.
func (d DayKeys) Clone() DayKeys {
	if d == nil {
		return DayKeys{}
	}
	return slices.Clone(d)
}

// MarshalJSON encodes a nil set as an empty array.
func (d DayKeys) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(d))
}

// GormDBDataType picks the column type per dialect.
func (DayKeys) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// Value encodes the set as an array literal.
func (d DayKeys) Value() (driver.Value, error) {
	quoted := make([]string, len(d))
	for i, k := range d {
		quoted[i] = `"` + strings.ReplaceAll(k, `"`, ``) + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}", nil
}

// Scan decodes an array literal.
func (d *DayKeys) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*d = DayKeys{}
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("days_marked_done: unsupported type %T", src)
	}

	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	keys := DayKeys{}
	if s == "" {
		*d = keys
		return nil
	}
	for _, part := range strings.Split(s, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"`)
		if part != "" {
			keys = append(keys, part)
		}
	}
	*d = keys
	return nil
}
