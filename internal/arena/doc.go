// Package arena provides the contiguous record storage behind point views.
//
// Records are fixed-size byte slots laid out back to back in a single buffer
// (row-major). Growth is accounted against an optional MemoryReserver so a
// run can be bounded by a memory limit.
//
// # Safety
//
// Records is not safe for concurrent mutation. Once a view is built the
// arena is only read, and concurrent reads are safe.
package arena
