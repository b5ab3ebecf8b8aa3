// Package extend implements the ordered name/value list attached to local
// records for metadata that has no column of its own.
//
// Reads with Get return the first matching entry. ToMap folds the list left to
// right so the last occurrence of a name wins. Append never deduplicates.
package extend

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// KeyValue is one extend entry.
type KeyValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// List is an ordered extend list stored as a JSON column.
type List []KeyValue

// Get returns the value of the first entry named key.
func Get(list List, key string) (string, bool) {
	for _, kv := range list {
		if kv.Name == key {
			return kv.Value, true
		}
	}
	return "", false
}

// ToMap folds the list into a map. Later entries overwrite earlier ones.
func ToMap(list List) map[string]string {
	out := make(map[string]string, len(list))
	for _, kv := range list {
		out[kv.Name] = kv.Value
	}
	return out
}

// Append returns a new list with pairs added at the end. The input is not modified.
func Append(list List, pairs ...KeyValue) List {
	out := make(List, 0, len(list)+len(pairs))
	out = append(out, list...)
	return append(out, pairs...)
}

func (l List) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]KeyValue(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *List) Scan(value interface{}) error {
	if l == nil {
		return fmt.Errorf("extend.List: Scan on nil pointer")
	}
	if value == nil {
		*l = List{}
		return nil
	}

	var raw string
	switch v := value.(type) {
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("extend.List: unsupported Scan type %T", value)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		*l = List{}
		return nil
	}

	var items []KeyValue
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return fmt.Errorf("extend.List: %w", err)
	}
	*l = items
	return nil
}
