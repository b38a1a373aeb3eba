package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
)

// Interests is stored as a JSON array in a TEXT column so the same schema
// works on PostgreSQL and SQLite.
type Interests []string

func (i Interests) Value() (driver.Value, error) {
	if i == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(i))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (i *Interests) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*i = Interests{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan interests: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*i = Interests{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan interests: %w", err)
	}
	*i = out
	return nil
}

// Has reports whether the exact interest is present.
func (i Interests) Has(interest string) bool {
	return slices.Contains(i, interest)
}
