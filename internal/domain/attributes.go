package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Attributes is the open key/value blob attached to an item. Keys keep the
// order in which they were written so that anything rendered from the blob
// comes out in a stable order.
type Attributes struct {
	m *orderedmap.OrderedMap[string, Value]
}

func NewAttributes() *Attributes {
	return &Attributes{m: orderedmap.New[string, Value]()}
}

// ParseAttributes decodes a blob leniently. The blob may be a JSON object or a
// JSON string holding an object; anything else, including malformed input,
// yields an empty blob.
func ParseAttributes(raw []byte) *Attributes {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return NewAttributes()
		}
		raw = bytes.TrimSpace([]byte(inner))
	}
	if len(raw) == 0 || raw[0] != '{' {
		return NewAttributes()
	}

	attrs := NewAttributes()
	if err := attrs.UnmarshalJSON(raw); err != nil {
		return NewAttributes()
	}
	return attrs
}

func (a *Attributes) Len() int {
	if a == nil || a.m == nil {
		return 0
	}
	return a.m.Len()
}

func (a *Attributes) Set(key string, value Value) {
	if a.m == nil {
		a.m = orderedmap.New[string, Value]()
	}
	a.m.Set(key, value)
}

func (a *Attributes) Get(key string) (Value, bool) {
	if a == nil || a.m == nil {
		return Value{}, false
	}
	return a.m.Get(key)
}

// Lookup finds key ignoring letter case. An exact match wins over a folded
// one; otherwise the first folded match in key order is returned.
func (a *Attributes) Lookup(key string) (string, Value, bool) {
	if v, ok := a.Get(key); ok {
		return key, v, true
	}
	if a == nil || a.m == nil {
		return "", Value{}, false
	}
	for pair := a.m.Oldest(); pair != nil; pair = pair.Next() {
		if strings.EqualFold(pair.Key, key) {
			return pair.Key, pair.Value, true
		}
	}
	return "", Value{}, false
}

func (a *Attributes) Keys() []string {
	if a == nil || a.m == nil {
		return nil
	}
	keys := make([]string, 0, a.m.Len())
	for pair := a.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Each visits entries in key order.
func (a *Attributes) Each(fn func(key string, value Value)) {
	if a == nil || a.m == nil {
		return
	}
	for pair := a.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

func (a *Attributes) MarshalJSON() ([]byte, error) {
	if a == nil || a.m == nil {
		return []byte("{}"), nil
	}
	return a.m.MarshalJSON()
}

func (a *Attributes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		data = bytes.TrimSpace([]byte(inner))
	}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		a.m = orderedmap.New[string, Value]()
		return nil
	}
	if data[0] != '{' {
		return fmt.Errorf("attributes must be a JSON object")
	}

	m := orderedmap.New[string, Value]()
	if err := m.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid attributes: %w", err)
	}
	a.m = m
	return nil
}

// Scan implements sql.Scanner. Undecodable column content scans as an empty blob.
func (a *Attributes) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = *NewAttributes()
	case []byte:
		*a = *ParseAttributes(v)
	case string:
		*a = *ParseAttributes([]byte(v))
	default:
		return fmt.Errorf("cannot scan %T into attributes", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (a *Attributes) Value() (driver.Value, error) {
	data, err := a.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
