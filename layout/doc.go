// Package layout resolves dimensions to byte positions within a point record.
//
// A Layout is computed once from an ordered schema and is immutable
// afterwards. Records are packed with no padding: each dimension occupies
// Size bytes at Offset, and PointSize is the sum of all sizes.
//
//	l, err := layout.New(
//		dimension.Type{ID: dimension.X, Encoding: dimension.Double},
//		dimension.Type{ID: dimension.Intensity, Encoding: dimension.Unsigned16},
//	)
//	d, err := l.Resolve(dimension.Intensity) // Offset 8, Size 2
package layout
