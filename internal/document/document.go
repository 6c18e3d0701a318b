// Package document provides the JSON-shaped value model the extraction core
// operates on. Values are tagged (object, array, scalar, null) with an extra
// "missing" kind, so absence stays distinguishable from JSON null during
// resolution, filtering and projection. Object members keep document order.
package document

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/alpeshvas/siphon/internal/number"
)

// Kind identifies the shape of a Value.
type Kind uint8

const (
	KindMissing Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Member is a single key/value pair of an object.
type Member struct {
	Key   string
	Value Value
}

// Value is an immutable JSON-shaped value. The zero value is Missing.
type Value struct {
	kind    Kind
	boolean bool
	num     json.Number
	str     string
	arr     []Value
	members []Member
	index   map[string]int
}

// Missing returns the absence sentinel, distinct from Null.
func Missing() Value { return Value{kind: KindMissing} }

// Null returns the JSON null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Number returns a numeric value from its JSON text representation.
func Number(n json.Number) Value { return Value{kind: KindNumber, num: n} }

// Int returns a numeric value from an int64.
func Int(i int64) Value { return Number(json.Number(strconv.FormatInt(i, 10))) }

// Float returns a numeric value from a float64.
func Float(f float64) Value {
	return Number(json.Number(strconv.FormatFloat(f, 'g', -1, 64)))
}

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Array returns an array value over the given elements.
func Array(elems ...Value) Value { return Value{kind: KindArray, arr: elems} }

// ArrayOf returns an array value backed by the given slice.
func ArrayOf(elems []Value) Value { return Value{kind: KindArray, arr: elems} }

// Object returns an object value preserving member order.
// A repeated key keeps the last member, matching encoding/json behavior.
func Object(members ...Member) Value {
	index := make(map[string]int, len(members))
	kept := make([]Member, 0, len(members))
	for _, m := range members {
		if at, ok := index[m.Key]; ok {
			kept[at] = m
			continue
		}
		index[m.Key] = len(kept)
		kept = append(kept, m)
	}
	return Value{kind: KindObject, members: kept, index: index}
}

// Kind reports the value's shape.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the value is the absence sentinel.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// IsNull reports whether the value is JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Field looks a key up on an object value. It returns Missing when the key
// is absent or the receiver is not an object, never an error.
func (v Value) Field(name string) Value {
	if v.kind != KindObject {
		return Missing()
	}
	at, ok := v.index[name]
	if !ok {
		return Missing()
	}
	return v.members[at].Value
}

// Elements returns the array elements, or nil for non-arrays.
func (v Value) Elements() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.arr
}

// Members returns the object members in document order, or nil for
// non-objects.
func (v Value) Members() []Member {
	if v.kind != KindObject {
		return nil
	}
	return v.members
}

// Len returns the element or member count for containers and 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.members)
	default:
		return 0
	}
}

// Bool returns the boolean payload.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.boolean, true
}

// Str returns the string payload.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Float64 returns the numeric payload as float64.
func (v Value) Float64() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return number.ToFloat64(v.num)
}

// Equal reports deep equality. Numbers compare by numeric value, so 1 and
// 1.0 are equal. Object member order does not affect equality. Missing only
// equals Missing.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindMissing, KindNull:
		return true
	case KindBool:
		return v.boolean == other.boolean
	case KindString:
		return v.str == other.str
	case KindNumber:
		a, aok := number.ToFloat64(v.num)
		b, bok := number.ToFloat64(other.num)
		if !aok || !bok {
			return v.num == other.num
		}
		return a == b
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.members) != len(other.members) {
			return false
		}
		for _, m := range v.members {
			if !m.Value.Equal(other.Field(m.Key)) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Interface returns the plain Go representation: map[string]any for objects,
// []any for arrays, json.Number for numbers. Missing and Null both map to
// nil. Object member order is lost; use Members for order-sensitive output.
func (v Value) Interface() any {
	switch v.kind {
	case KindMissing, KindNull:
		return nil
	case KindBool:
		return v.boolean
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.members))
		for _, m := range v.members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// FromAny builds a Value from plain Go data as produced by encoding/json or
// YAML decoding. Map keys are ordered lexically; decode documents with
// Decode when member order matters.
func FromAny(raw any) Value {
	switch current := raw.(type) {
	case nil:
		return Null()
	case Value:
		return current
	case bool:
		return Bool(current)
	case string:
		return String(current)
	case json.Number:
		return Number(current)
	case []any:
		elems := make([]Value, len(current))
		for i, e := range current {
			elems[i] = FromAny(e)
		}
		return ArrayOf(elems)
	case map[string]any:
		keys := make([]string, 0, len(current))
		for k := range current {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, 0, len(keys))
		for _, k := range keys {
			members = append(members, Member{Key: k, Value: FromAny(current[k])})
		}
		return Object(members...)
	default:
		if f, ok := number.ToFloat64(current); ok {
			if i, ok := current.(int); ok {
				return Int(int64(i))
			}
			if i, ok := current.(int64); ok {
				return Int(i)
			}
			return Float(f)
		}
		return String(fmt.Sprintf("%v", current))
	}
}
