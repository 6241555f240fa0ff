package metadata

import (
	"iter"

	gojson "github.com/goccy/go-json"
)

// Object is a string-keyed map that keeps insertion order.
//
// Objects are not safe for concurrent mutation.
type Object struct {
	keys []string
	vals map[string]Value
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// Set stores v under key. Replacing a key keeps its original position.
func (o *Object) Set(key string, v Value) *Object {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
	return o
}

// Child returns the object stored under key, creating it when absent or
// when key holds a non-object value.
func (o *Object) Child(key string) *Object {
	if v, ok := o.vals[key]; ok && v.Kind == KindObject {
		return v.O
	}
	c := NewObject()
	o.Set(key, ObjectValue(c))
	return c
}

// Get returns the value under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	v, ok := o.vals[key]
	return v, ok
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// All yields key/value pairs in insertion order.
func (o *Object) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if o == nil {
			return
		}
		for _, k := range o.keys {
			if !yield(k, o.vals[k]) {
				return
			}
		}
	}
}

// Clone returns a deep copy of o.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	c := &Object{keys: append([]string(nil), o.keys...), vals: make(map[string]Value, len(o.vals))}
	for k, v := range o.vals {
		c.vals[k] = v.clone()
	}
	return c
}

// MarshalJSON implements json.Marshaler. Keys are emitted in insertion order.
func (o *Object) MarshalJSON() ([]byte, error) {
	return o.appendJSON(nil)
}

func (o *Object) appendJSON(dst []byte) ([]byte, error) {
	if o == nil {
		return append(dst, "null"...), nil
	}
	dst = append(dst, '{')
	for i, k := range o.keys {
		if i > 0 {
			dst = append(dst, ',')
		}
		kb, err := gojson.Marshal(k)
		if err != nil {
			return nil, err
		}
		dst = append(dst, kb...)
		dst = append(dst, ':')
		if dst, err = o.vals[k].appendJSON(dst); err != nil {
			return nil, err
		}
	}
	return append(dst, '}'), nil
}
