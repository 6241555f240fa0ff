package metadata

import (
	"math"
	"strconv"
	"unique"

	gojson "github.com/goccy/go-json"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindNull represents a null value.
	KindNull
	// KindInt represents an integer value.
	KindInt
	// KindFloat represents a float value.
	KindFloat
	// KindString represents a string value.
	KindString
	// KindBool represents a boolean value.
	KindBool
	// KindArray represents an array value.
	KindArray
	// KindObject represents a nested object.
	KindObject
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Value is a small typed value of a metadata tree.
type Value struct {
	Kind Kind
	I64  int64
	F64  float64
	s    unique.Handle[string]
	B    bool
	A    []Value
	O    *Object
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return v.appendJSON(nil)
}

func (v Value) appendJSON(dst []byte) ([]byte, error) {
	switch v.Kind {
	case KindInt:
		return strconv.AppendInt(dst, v.I64, 10), nil
	case KindFloat:
		if math.IsNaN(v.F64) || math.IsInf(v.F64, 0) {
			return append(dst, "null"...), nil
		}
		return strconv.AppendFloat(dst, v.F64, 'g', -1, 64), nil
	case KindString:
		b, err := gojson.Marshal(v.s.Value())
		if err != nil {
			return nil, err
		}
		return append(dst, b...), nil
	case KindBool:
		return strconv.AppendBool(dst, v.B), nil
	case KindArray:
		dst = append(dst, '[')
		for i := range v.A {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = v.A[i].appendJSON(dst); err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	case KindObject:
		return v.O.appendJSON(dst)
	default:
		return append(dst, "null"...), nil
	}
}

// StringValue returns the string value if Kind is KindString, otherwise empty string.
func (v Value) StringValue() string {
	if v.Kind == KindString {
		return v.s.Value()
	}
	return ""
}

// AsInt64 returns the int64 value if Kind is KindInt.
func (v Value) AsInt64() (int64, bool) {
	if v.Kind != KindInt {
		return 0, false
	}
	return v.I64, true
}

// AsFloat64 returns the value as float64 if Kind is KindFloat or KindInt.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.F64, true
	case KindInt:
		return float64(v.I64), true
	}
	return 0, false
}

// AsString returns the string value if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.s.Value(), true
}

// AsBool returns the boolean value if Kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.Kind != KindBool {
		return false, false
	}
	return v.B, true
}

// AsArray returns the array value if Kind is KindArray.
func (v Value) AsArray() ([]Value, bool) {
	if v.Kind != KindArray {
		return nil, false
	}
	return v.A, true
}

// AsObject returns the nested object if Kind is KindObject.
func (v Value) AsObject() (*Object, bool) {
	if v.Kind != KindObject {
		return nil, false
	}
	return v.O, true
}

// Null returns a null Value.
func Null() Value { return Value{Kind: KindNull} }

// Int returns an int64 Value.
func Int(v int64) Value { return Value{Kind: KindInt, I64: v} }

// Float returns a float64 Value.
func Float(v float64) Value { return Value{Kind: KindFloat, F64: v} }

// String returns a string Value.
func String(v string) Value { return Value{Kind: KindString, s: unique.Make(v)} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{Kind: KindBool, B: v} }

// Array returns an array Value.
func Array(v []Value) Value { return Value{Kind: KindArray, A: v} }

// Strings returns an array Value of strings.
func Strings(v []string) Value {
	a := make([]Value, len(v))
	for i := range v {
		a[i] = String(v[i])
	}
	return Array(a)
}

// ObjectValue wraps o as a Value. A nil object is null.
func ObjectValue(o *Object) Value {
	if o == nil {
		return Null()
	}
	return Value{Kind: KindObject, O: o}
}

// clone creates a deep copy of a Value, including nested arrays and objects.
func (v Value) clone() Value {
	switch v.Kind {
	case KindArray:
		if len(v.A) == 0 {
			return v
		}
		arrayCopy := make([]Value, len(v.A))
		for i := range v.A {
			arrayCopy[i] = v.A[i].clone()
		}
		return Value{Kind: KindArray, A: arrayCopy}
	case KindObject:
		return Value{Kind: KindObject, O: v.O.Clone()}
	}
	return v
}
