package pointview

import (
	"fmt"

	"github.com/hupe1980/pointflow/dimension"
	"github.com/hupe1980/pointflow/internal/conv"
)

// Field reads dimension id of point idx and converts it to T.
//
// The conversion follows Go's rules for numeric conversions; precision and
// range loss are silent. Field fails with ErrIndexOutOfRange for an invalid
// index and with layout.ErrDimensionNotInSchema for a dimension the view does
// not carry.
func Field[T Number](v *View, id dimension.ID, idx int) (T, error) {
	d, b, err := v.field(id, idx)
	if err != nil {
		var zero T
		return zero, err
	}
	return conv.Read[T](d.Encoding, b), nil
}

// FieldInt8 reads a field as int8. See Field.
func (v *View) FieldInt8(id dimension.ID, idx int) (int8, error) { return Field[int8](v, id, idx) }

// FieldInt16 reads a field as int16. See Field.
func (v *View) FieldInt16(id dimension.ID, idx int) (int16, error) { return Field[int16](v, id, idx) }

// FieldInt32 reads a field as int32. See Field.
func (v *View) FieldInt32(id dimension.ID, idx int) (int32, error) { return Field[int32](v, id, idx) }

// FieldInt64 reads a field as int64. See Field.
func (v *View) FieldInt64(id dimension.ID, idx int) (int64, error) { return Field[int64](v, id, idx) }

// FieldUint8 reads a field as uint8. See Field.
func (v *View) FieldUint8(id dimension.ID, idx int) (uint8, error) { return Field[uint8](v, id, idx) }

// FieldUint16 reads a field as uint16. See Field.
func (v *View) FieldUint16(id dimension.ID, idx int) (uint16, error) {
	return Field[uint16](v, id, idx)
}

// FieldUint32 reads a field as uint32. See Field.
func (v *View) FieldUint32(id dimension.ID, idx int) (uint32, error) {
	return Field[uint32](v, id, idx)
}

// FieldUint64 reads a field as uint64. See Field.
func (v *View) FieldUint64(id dimension.ID, idx int) (uint64, error) {
	return Field[uint64](v, id, idx)
}

// FieldFloat32 reads a field as float32. See Field.
func (v *View) FieldFloat32(id dimension.ID, idx int) (float32, error) {
	return Field[float32](v, id, idx)
}

// FieldFloat64 reads a field as float64. See Field.
func (v *View) FieldFloat64(id dimension.ID, idx int) (float64, error) {
	return Field[float64](v, id, idx)
}

// Value is a field value tagged with its stored encoding.
type Value struct {
	Encoding dimension.Encoding
	raw      [8]byte
}

// NewValue returns x stored as enc.
func NewValue[T Number](enc dimension.Encoding, x T) Value {
	val := Value{Encoding: enc}
	conv.Write(enc, val.raw[:], x)
	return val
}

// Float64 returns the value converted to float64.
func (val Value) Float64() float64 { return conv.Read[float64](val.Encoding, val.raw[:]) }

// Int64 returns the value converted to int64.
func (val Value) Int64() int64 { return conv.Read[int64](val.Encoding, val.raw[:]) }

// Uint64 returns the value converted to uint64.
func (val Value) Uint64() uint64 { return conv.Read[uint64](val.Encoding, val.raw[:]) }

// String formats the value in its native family.
func (val Value) String() string {
	switch val.Encoding.Base() {
	case dimension.BaseSigned:
		return fmt.Sprint(val.Int64())
	case dimension.BaseUnsigned:
		return fmt.Sprint(val.Uint64())
	case dimension.BaseFloating:
		if val.Encoding == dimension.Float {
			return fmt.Sprint(conv.Read[float32](val.Encoding, val.raw[:]))
		}
		return fmt.Sprint(val.Float64())
	}
	return "<none>"
}

// Value returns dimension id of point idx in its stored encoding.
func (v *View) Value(id dimension.ID, idx int) (Value, error) {
	d, b, err := v.field(id, idx)
	if err != nil {
		return Value{}, err
	}
	val := Value{Encoding: d.Encoding}
	copy(val.raw[:], b[:d.Size])
	return val, nil
}
