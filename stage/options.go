package stage

import (
	"fmt"
	"strconv"
	"strings"
)

// Option is one (name, value) pair of an Options bag.
type Option struct {
	Name  string
	Value string
}

// Options is an ordered bag of string options passed to a stage.
//
// Names may repeat; Add never replaces an existing entry.
type Options struct {
	entries []Option
}

// NewOptions returns a bag holding pairs, in order.
func NewOptions(pairs ...Option) *Options {
	return &Options{entries: append([]Option(nil), pairs...)}
}

// Add appends the pair (name, value).
func (o *Options) Add(name, value string) *Options {
	o.entries = append(o.entries, Option{Name: name, Value: value})
	return o
}

// Len returns the number of pairs.
func (o *Options) Len() int {
	if o == nil {
		return 0
	}
	return len(o.entries)
}

// Entries returns a copy of every pair in insertion order.
func (o *Options) Entries() []Option {
	if o == nil {
		return nil
	}
	return append([]Option(nil), o.entries...)
}

// Names returns the distinct option names in first-seen order.
func (o *Options) Names() []string {
	if o == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(o.entries))
	names := make([]string, 0, len(o.entries))
	for _, e := range o.entries {
		if _, ok := seen[e.Name]; ok {
			continue
		}
		seen[e.Name] = struct{}{}
		names = append(names, e.Name)
	}
	return names
}

// Has reports whether name was added at least once.
func (o *Options) Has(name string) bool {
	_, ok := o.Get(name)
	return ok
}

// Get returns the last value added under name.
func (o *Options) Get(name string) (string, bool) {
	if o == nil {
		return "", false
	}
	for i := len(o.entries) - 1; i >= 0; i-- {
		if o.entries[i].Name == name {
			return o.entries[i].Value, true
		}
	}
	return "", false
}

// GetAll returns every value added under name, in order.
func (o *Options) GetAll(name string) []string {
	if o == nil {
		return nil
	}
	var out []string
	for _, e := range o.entries {
		if e.Name == name {
			out = append(out, e.Value)
		}
	}
	return out
}

// String returns the value of name, or def when absent.
func (o *Options) String(name, def string) string {
	if v, ok := o.Get(name); ok {
		return v
	}
	return def
}

// Int returns the value of name parsed as an integer, or def when absent.
func (o *Options) Int(name string, def int) (int, error) {
	v, ok := o.Get(name)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, invalidOption(name, v, "integer")
	}
	return n, nil
}

// Uint64 returns the value of name parsed as an unsigned integer, or def
// when absent.
func (o *Options) Uint64(name string, def uint64) (uint64, error) {
	v, ok := o.Get(name)
	if !ok {
		return def, nil
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, invalidOption(name, v, "unsigned integer")
	}
	return n, nil
}

// Float returns the value of name parsed as a float, or def when absent.
func (o *Options) Float(name string, def float64) (float64, error) {
	v, ok := o.Get(name)
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, invalidOption(name, v, "number")
	}
	return f, nil
}

// Bool returns the value of name parsed as a boolean, or def when absent.
func (o *Options) Bool(name string, def bool) (bool, error) {
	v, ok := o.Get(name)
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, invalidOption(name, v, "boolean")
	}
	return b, nil
}

// Clone returns an independent copy of o.
func (o *Options) Clone() *Options {
	return NewOptions(o.Entries()...)
}

func invalidOption(name, value, want string) error {
	return fmt.Errorf("%w: %s=%q is not a valid %s", ErrInvalidOption, name, value, want)
}
