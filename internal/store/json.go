package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonList stores a string list in a JSONB column. A nil list is written as [].
type jsonList []string

func (l jsonList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return marshalJSON([]string(l))
}

func (l *jsonList) Scan(src any) error {
	return scanJSON(src, (*[]string)(l))
}

// jsonMap stores a percentage distribution in a JSONB column.
type jsonMap map[string]float64

func (m jsonMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return marshalJSON(map[string]float64(m))
}

func (m *jsonMap) Scan(src any) error {
	return scanJSON(src, (*map[string]float64)(m))
}

// jsonDoc stores any JSON encodable value in a JSONB column.
type jsonDoc[T any] struct {
	V T
}

func (d jsonDoc[T]) Value() (driver.Value, error) {
	return marshalJSON(d.V)
}

func (d *jsonDoc[T]) Scan(src any) error {
	return scanJSON(src, &d.V)
}

// marshalJSON returns text so the driver does not send the value as bytea.
func marshalJSON(v any) (driver.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func scanJSON(src any, dst any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
