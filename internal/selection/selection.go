package selection

import (
	"iter"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
)

// Set is a set of point indexes backed by a 32-bit Roaring bitmap.
type Set struct {
	rb *roaring.Bitmap
}

// setPool reuses sets across chunks of a streamed run.
var setPool = sync.Pool{
	New: func() any {
		return &Set{
			rb: roaring.New(),
		}
	},
}

// New creates an empty set.
func New() *Set {
	return &Set{
		rb: roaring.New(),
	}
}

// Range returns a set holding every index in [start, end).
func Range(start, end int) *Set {
	s := New()
	s.AddRange(start, end)
	return s
}

// Get gets a set from the pool. Call Put when done.
func Get() *Set {
	s := setPool.Get().(*Set)
	s.rb.Clear()
	return s
}

// Put returns a set to the pool.
func Put(s *Set) {
	if s == nil {
		return
	}
	// Clear before returning to pool to release container memory
	s.rb.Clear()
	setPool.Put(s)
}

// Add adds a point index.
func (s *Set) Add(idx int) {
	s.rb.Add(uint32(idx))
}

// AddRange adds every index in [start, end).
func (s *Set) AddRange(start, end int) {
	if end > start {
		s.rb.AddRange(uint64(start), uint64(end))
	}
}

// Contains reports whether idx is in the set.
func (s *Set) Contains(idx int) bool {
	return s.rb.Contains(uint32(idx))
}

// IsEmpty returns true if the set is empty.
func (s *Set) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// Len returns the number of indexes in the set.
func (s *Set) Len() int {
	return int(s.rb.GetCardinality())
}

// All yields the indexes in increasing order.
func (s *Set) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(int(it.Next())) {
				return
			}
		}
	}
}

// And computes the intersection of two sets in place.
func (s *Set) And(other *Set) {
	s.rb.And(other.rb)
}

// Or computes the union of two sets in place.
func (s *Set) Or(other *Set) {
	s.rb.Or(other.rb)
}

// Clear removes all indexes.
func (s *Set) Clear() {
	s.rb.Clear()
}
