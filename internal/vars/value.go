// Package vars defines the typed variable values produced while formatting a
// template and the per-pass memo that stores them.
package vars

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
	KindList
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ISOLayout is the layout used when a date is projected to a string.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// Value is a tagged union of the values a variable may hold.
// The zero Value is Null.
type Value struct {
	kind  Kind
	str   string
	num   float64
	boolv bool
	date  time.Time
	list  []Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// String wraps s.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number wraps f.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, boolv: b} }

// Date wraps t.
func Date(t time.Time) Value { return Value{kind: KindDate, date: t} }

// List wraps items. The slice is copied.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// Strings builds a list of string values.
func Strings(items ...string) Value {
	out := make([]Value, len(items))
	for i, s := range items {
		out[i] = String(s)
	}
	return Value{kind: KindList, list: out}
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsString reports whether v holds a plain string.
func (v Value) IsString() bool { return v.kind == KindString }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the raw string and whether v is a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Num returns the number and whether v is a number.
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// Boolean returns the bool and whether v is a bool.
func (v Value) Boolean() (bool, bool) { return v.boolv, v.kind == KindBool }

// Time returns the date and whether v is a date.
func (v Value) Time() (time.Time, bool) { return v.date, v.kind == KindDate }

// Items returns the list items and whether v is a list.
func (v Value) Items() ([]Value, bool) { return v.list, v.kind == KindList }

// String is the projection used when a value is substituted into text.
// Null renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if math.IsInf(v.num, 0) || math.IsNaN(v.num) {
			return strconv.FormatFloat(v.num, 'g', -1, 64)
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.boolv)
	case KindDate:
		return v.date.UTC().Format(ISOLayout)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// Interface converts v into plain Go values suitable for YAML or JSON
// encoding: nil, string, float64 or int, bool, time.Time, []any.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if v.num == math.Trunc(v.num) && math.Abs(v.num) < 1<<53 {
			return int64(v.num)
		}
		return v.num
	case KindBool:
		return v.boolv
	case KindDate:
		return v.date
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// Equal reports deep equality.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.boolv == o.boolv
	case KindDate:
		return v.date.Equal(o.date)
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// FromAny converts a loosely typed value (as returned by a script, a JSON
// decoder or a YAML decoder) into a Value. Maps are not supported and are
// rendered through fmt.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case float32:
		return Number(float64(t))
	case float64:
		return Number(t)
	case time.Time:
		return Date(t)
	case []string:
		return Strings(t...)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromAny(item)
		}
		return Value{kind: KindList, list: items}
	default:
		return String(fmt.Sprint(t))
	}
}
