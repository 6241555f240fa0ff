// Package pointview provides schema-homogeneous point collections and typed
// access to their fields.
//
// A View is an immutable, row-major sequence of point records sharing one
// layout.Layout. Fields are read with the generic Field function (or the
// FieldInt8 ... FieldFloat64 methods), which convert the stored value to the
// requested type using Go's numeric conversion rules. Narrowing is silent:
// reading a Double dimension as int8 truncates exactly like a C static_cast.
// Conversion of out-of-range floating point values to integers is
// implementation-defined.
//
// PackedPoint serializes a caller-ordered subset of dimensions of one point
// into a contiguous little-endian buffer, converting each value to the
// requested encoding. It validates every requested dimension before writing
// any byte.
//
// A Set holds the views of one pipeline execution; Iterator walks it with an
// explicit cursor:
//
//	it := set.Iter()
//	for it.HasNext() {
//		v, _ := it.Next()
//		x, err := pointview.Field[float64](v, dimension.X, 0)
//		...
//	}
//
// Views are built with a Builder and become read-only once Build returns.
package pointview
