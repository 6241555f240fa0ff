package codec

import (
	"bytes"
	"io"

	gojson "github.com/goccy/go-json"
)

// GoJSON is a JSON codec backed by github.com/goccy/go-json.
type GoJSON struct{}

// Marshal encodes the value to JSON.
func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

// MarshalIndent encodes the value to indented JSON.
func (GoJSON) MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// Unmarshal decodes the JSON data into v.
func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

// NewDecoder returns a goccy/go-json stream decoder.
func (GoJSON) NewDecoder(r io.Reader) Decoder { return gojson.NewDecoder(r) }

// Compact removes insignificant whitespace from src.
func (GoJSON) Compact(dst *bytes.Buffer, src []byte) error {
	if dst.Len() == 0 {
		return gojson.Compact(dst, src)
	}
	// gojson.Compact rewrites the existing contents of a non-empty buffer.
	var tmp bytes.Buffer
	if err := gojson.Compact(&tmp, src); err != nil {
		return err
	}
	_, _ = dst.Write(tmp.Bytes())
	return nil
}

// Name returns the unique name of the codec ("go-json").
func (GoJSON) Name() string { return "go-json" }

// Append encodes the value to JSON and appends it to dst.
func (GoJSON) Append(dst []byte, v any) ([]byte, error) {
	b, err := gojson.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(dst, b...), nil
}
