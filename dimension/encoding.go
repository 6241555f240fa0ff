package dimension

import "fmt"

// BaseType is the numeric family of an encoding.
type BaseType uint16

const (
	// BaseNone is the family of the invalid None encoding.
	BaseNone BaseType = 0x000
	// BaseSigned is the signed integer family.
	BaseSigned BaseType = 0x100
	// BaseUnsigned is the unsigned integer family.
	BaseUnsigned BaseType = 0x200
	// BaseFloating is the IEEE-754 floating point family.
	BaseFloating BaseType = 0x400
)

// String returns the family name used in schema documents.
func (b BaseType) String() string {
	switch b {
	case BaseSigned:
		return "signed"
	case BaseUnsigned:
		return "unsigned"
	case BaseFloating:
		return "floating"
	default:
		return "none"
	}
}

// Encoding identifies how a dimension value is stored.
//
// The numeric value is the wire ordinal: the base type in the high byte and
// the byte width in the low byte. It is stable across platforms and is the
// value written to persisted point files.
type Encoding uint16

const (
	// None is the zero Encoding. It is not a valid storage encoding.
	None       Encoding = 0
	Signed8    Encoding = Encoding(BaseSigned) | 1
	Signed16   Encoding = Encoding(BaseSigned) | 2
	Signed32   Encoding = Encoding(BaseSigned) | 4
	Signed64   Encoding = Encoding(BaseSigned) | 8
	Unsigned8  Encoding = Encoding(BaseUnsigned) | 1
	Unsigned16 Encoding = Encoding(BaseUnsigned) | 2
	Unsigned32 Encoding = Encoding(BaseUnsigned) | 4
	Unsigned64 Encoding = Encoding(BaseUnsigned) | 8
	Float      Encoding = Encoding(BaseFloating) | 4
	Double     Encoding = Encoding(BaseFloating) | 8
)

// Encodings lists every valid storage encoding.
var Encodings = []Encoding{
	Signed8, Signed16, Signed32, Signed64,
	Unsigned8, Unsigned16, Unsigned32, Unsigned64,
	Float, Double,
}

// Valid reports whether e is one of the ten storage encodings.
func (e Encoding) Valid() bool {
	switch e {
	case Signed8, Signed16, Signed32, Signed64,
		Unsigned8, Unsigned16, Unsigned32, Unsigned64,
		Float, Double:
		return true
	}
	return false
}

// Size returns the byte width of e, or 0 for None and unknown values.
func (e Encoding) Size() int {
	if !e.Valid() {
		return 0
	}
	return int(e & 0xff)
}

// Base returns the numeric family of e.
func (e Encoding) Base() BaseType {
	if !e.Valid() {
		return BaseNone
	}
	return BaseType(e & 0xff00)
}

// Ordinal returns the cross-boundary ordinal of e.
func (e Encoding) Ordinal() int {
	return int(e)
}

// Name returns the symbolic name of e ("Signed8", ..., "Double").
func (e Encoding) Name() string {
	switch e {
	case None:
		return "None"
	case Signed8:
		return "Signed8"
	case Signed16:
		return "Signed16"
	case Signed32:
		return "Signed32"
	case Signed64:
		return "Signed64"
	case Unsigned8:
		return "Unsigned8"
	case Unsigned16:
		return "Unsigned16"
	case Unsigned32:
		return "Unsigned32"
	case Unsigned64:
		return "Unsigned64"
	case Float:
		return "Float"
	case Double:
		return "Double"
	default:
		return fmt.Sprintf("Encoding(%d)", uint16(e))
	}
}

// Interpretation returns the C type name of e ("int8_t", ..., "double").
func (e Encoding) Interpretation() string {
	switch e {
	case Signed8:
		return "int8_t"
	case Signed16:
		return "int16_t"
	case Signed32:
		return "int32_t"
	case Signed64:
		return "int64_t"
	case Unsigned8:
		return "uint8_t"
	case Unsigned16:
		return "uint16_t"
	case Unsigned32:
		return "uint32_t"
	case Unsigned64:
		return "uint64_t"
	case Float:
		return "float"
	case Double:
		return "double"
	default:
		return "unknown"
	}
}

// String implements fmt.Stringer.
func (e Encoding) String() string { return e.Name() }

// EncodingFromOrdinal returns the encoding with the given ordinal.
func EncodingFromOrdinal(ordinal int) (Encoding, bool) {
	if ordinal < 0 || ordinal > 0xffff {
		return None, false
	}
	e := Encoding(ordinal)
	if !e.Valid() {
		return None, false
	}
	return e, true
}

// EncodingByName resolves a symbolic name ("Double") or a C type name
// ("double", "uint16_t") to an encoding.
func EncodingByName(name string) (Encoding, bool) {
	for _, e := range Encodings {
		if e.Name() == name || e.Interpretation() == name {
			return e, true
		}
	}
	return None, false
}
