// Package codec centralizes the encoding of the documents pointflow emits
// and accepts: pipeline descriptions, run metadata and output schemas.
//
// All built-in codecs speak JSON. The default is backed by goccy/go-json;
// the standard library codec is available for callers who want the lowest
// dependency surface.
package codec

import (
	"bytes"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"
)

// RawMessage is an undecoded JSON value.
type RawMessage = gojson.RawMessage

// Token is a JSON token: a Delim, bool, float64, Number, string or nil.
type Token = gojson.Token

// Delim is one of the JSON delimiters [ ] { }.
type Delim = gojson.Delim

// Decoder reads a JSON document token by token, so object members can be
// visited in document order.
type Decoder interface {
	Token() (Token, error)
	More() bool
	Decode(v any) error
}

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// NewDecoder returns a streaming decoder reading from r.
	NewDecoder(r io.Reader) Decoder
	// Compact appends src to dst with insignificant whitespace removed.
	Compact(dst *bytes.Buffer, src []byte) error
	Name() string
}

// Indenter is implemented by codecs that can pretty-print.
type Indenter interface {
	MarshalIndent(v any, prefix, indent string) ([]byte, error)
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MarshalIndent pretty-prints v with c when c supports it and falls back to
// the compact form otherwise.
func MarshalIndent(c Codec, v any, indent string) ([]byte, error) {
	if c == nil {
		c = Default
	}
	if ind, ok := c.(Indenter); ok {
		return ind.MarshalIndent(v, "", indent)
	}
	return c.Marshal(v)
}

// MustMarshal is a helper for internal tests/benchmarks.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
