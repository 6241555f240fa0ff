// Package dimension is the registry of point dimensions and their numeric
// encodings.
//
// A dimension ID names the meaning of a point attribute (X coordinate,
// intensity, classification, ...). An Encoding names how a value is stored
// (signed/unsigned integer of 8..64 bits, 32- or 64-bit float). A Type pairs
// the two: "this dimension, stored as that encoding". The same ID may appear
// with different encodings in different schemas.
//
// Everything in this package is a pure lookup over closed sets and is safe
// for concurrent use.
//
//	id, _ := dimension.ByName("Intensity")
//	t := dimension.Type{ID: id, Encoding: dimension.Unsigned16}
//	fmt.Println(t.Encoding.Size()) // 2
package dimension
