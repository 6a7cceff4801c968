package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

// Value is a single entry of an attributes blob. It holds exactly one of
// string, number, boolean, string list or nested mapping (or nothing).
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
	list []string
	obj  *Attributes
}

func StringValue(s string) Value { return Value{kind: KindString, str: s} }

func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }

func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

func ListValue(items ...string) Value {
	return Value{kind: KindList, list: append([]string(nil), items...)}
}

func MapValue(a *Attributes) Value {
	if a == nil {
		a = NewAttributes()
	}
	return Value{kind: KindMap, obj: a}
}

func (v Value) Kind() ValueKind { return v.kind }

// Map returns the nested mapping when the value holds one.
func (v Value) Map() (*Attributes, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.obj, true
}

func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// String renders the value for display. Nested mappings render as an empty string.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		if v.b {
			return "Yes"
		}
		return "No"
	case KindList:
		return strings.Join(v.list, ", ")
	}
	return ""
}

// IsBlank reports whether the value carries nothing worth displaying: null,
// whitespace, the literal "undefined"/"null", or an empty list or mapping.
func (v Value) IsBlank() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return isBlankString(v.str)
	case KindList:
		return len(v.list) == 0
	case KindMap:
		return v.obj.Len() == 0
	}
	return false
}

// IsZero is IsBlank plus numeric zero and false.
func (v Value) IsZero() bool {
	if v.IsBlank() {
		return true
	}
	switch v.kind {
	case KindBool:
		return !v.b
	case KindNumber:
		return v.num == 0
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		return err == nil && f == 0
	}
	return false
}

func isBlankString(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return true
	}
	lower := strings.ToLower(s)
	return lower == "undefined" || lower == "null"
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		return json.Marshal(v.list)
	case KindMap:
		return v.obj.MarshalJSON()
	}
	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*v = Value{}
		return nil
	}

	switch data[0] {
	case 'n':
		*v = Value{}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
	case '[':
		var raw []Value
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		items := make([]string, 0, len(raw))
		for _, item := range raw {
			if item.kind == KindMap || item.IsBlank() {
				continue
			}
			items = append(items, item.String())
		}
		*v = ListValue(items...)
	case '{':
		obj := NewAttributes()
		if err := obj.UnmarshalJSON(data); err != nil {
			return err
		}
		*v = MapValue(obj)
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("invalid attribute value %q: %w", data, err)
		}
		*v = NumberValue(f)
	}
	return nil
}
