package codec

import (
	"bytes"
	"encoding/json"
	"io"
)

// JSON is the standard-library JSON codec.
//
// Values implementing json.Marshaler / json.Unmarshaler (ordered metadata
// objects, pipeline stages) keep their custom encoding with either codec.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// MarshalIndent encodes the value to indented JSON.
func (JSON) MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(v, prefix, indent)
}

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// NewDecoder returns an encoding/json stream decoder.
func (JSON) NewDecoder(r io.Reader) Decoder { return json.NewDecoder(r) }

// Compact removes insignificant whitespace from src.
func (JSON) Compact(dst *bytes.Buffer, src []byte) error { return json.Compact(dst, src) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used by the pipeline manager unless overridden.
var Default Codec = GoJSON{}
