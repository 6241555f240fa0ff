// Package conv converts numbers between storage encodings.
//
// Two families of helpers live here:
//
//   - Read, Write and Convert decode and encode little-endian scalar values
//     for a dimension.Encoding, applying Go's numeric conversion rules when
//     the destination type differs from the stored one. Precision and range
//     loss are silent, matching a C static_cast.
//   - IntToUint32, Uint64ToInt and friends perform checked integer
//     conversions for sizes and counts read from untrusted file headers.
//
// Out-of-range float to integer conversion is implementation-defined in Go
// and is not relied upon by callers.
package conv
