package conv

import (
	"encoding/binary"
	"math"

	"github.com/hupe1980/pointflow/dimension"
)

// Number is the set of scalar types a dimension value can be read as.
type Number interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Read decodes the value stored in b with encoding enc and converts it to T.
//
// b must hold at least enc.Size() bytes. Read returns the zero T for an
// invalid encoding.
func Read[T Number](enc dimension.Encoding, b []byte) T {
	le := binary.LittleEndian
	switch enc {
	case dimension.Signed8:
		return T(int8(b[0]))
	case dimension.Signed16:
		return T(int16(le.Uint16(b)))
	case dimension.Signed32:
		return T(int32(le.Uint32(b)))
	case dimension.Signed64:
		return T(int64(le.Uint64(b)))
	case dimension.Unsigned8:
		return T(b[0])
	case dimension.Unsigned16:
		return T(le.Uint16(b))
	case dimension.Unsigned32:
		return T(le.Uint32(b))
	case dimension.Unsigned64:
		return T(le.Uint64(b))
	case dimension.Float:
		return T(math.Float32frombits(le.Uint32(b)))
	case dimension.Double:
		return T(math.Float64frombits(le.Uint64(b)))
	}
	var zero T
	return zero
}

// Write converts v to encoding enc and stores it little-endian in b.
//
// b must hold at least enc.Size() bytes. Write is a no-op for an invalid
// encoding.
func Write[T Number](enc dimension.Encoding, b []byte, v T) {
	le := binary.LittleEndian
	switch enc {
	case dimension.Signed8:
		b[0] = byte(int8(v))
	case dimension.Signed16:
		le.PutUint16(b, uint16(int16(v)))
	case dimension.Signed32:
		le.PutUint32(b, uint32(int32(v)))
	case dimension.Signed64:
		le.PutUint64(b, uint64(int64(v)))
	case dimension.Unsigned8:
		b[0] = uint8(v)
	case dimension.Unsigned16:
		le.PutUint16(b, uint16(v))
	case dimension.Unsigned32:
		le.PutUint32(b, uint32(v))
	case dimension.Unsigned64:
		le.PutUint64(b, uint64(v))
	case dimension.Float:
		le.PutUint32(b, math.Float32bits(float32(v)))
	case dimension.Double:
		le.PutUint64(b, math.Float64bits(float64(v)))
	}
}

// Convert re-encodes the value in src (stored as srcEnc) into dst as dstEnc.
//
// The value passes through the widest type of its own family, so the result
// equals a direct conversion from the native type to the destination type.
func Convert(dst []byte, dstEnc dimension.Encoding, src []byte, srcEnc dimension.Encoding) {
	if dstEnc == srcEnc {
		copy(dst[:dstEnc.Size()], src)
		return
	}
	switch srcEnc.Base() {
	case dimension.BaseSigned:
		Write(dstEnc, dst, Read[int64](srcEnc, src))
	case dimension.BaseUnsigned:
		Write(dstEnc, dst, Read[uint64](srcEnc, src))
	case dimension.BaseFloating:
		if srcEnc == dimension.Float {
			Write(dstEnc, dst, Read[float32](srcEnc, src))
			return
		}
		Write(dstEnc, dst, Read[float64](srcEnc, src))
	}
}

// EncodingOf returns the storage encoding matching T's underlying type.
func EncodingOf[T Number]() dimension.Encoding {
	var zero T
	switch any(zero).(type) {
	case int8:
		return dimension.Signed8
	case int16:
		return dimension.Signed16
	case int32:
		return dimension.Signed32
	case int64:
		return dimension.Signed64
	case uint8:
		return dimension.Unsigned8
	case uint16:
		return dimension.Unsigned16
	case uint32:
		return dimension.Unsigned32
	case uint64:
		return dimension.Unsigned64
	case float32:
		return dimension.Float
	case float64:
		return dimension.Double
	}
	return dimension.None
}
