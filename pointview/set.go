package pointview

import "iter"

// Set is the immutable collection of views produced by one execution.
//
// Views have no defined order across runs.
type Set struct {
	views []*View
}

// NewSet returns a set holding views.
func NewSet(views ...*View) *Set {
	return &Set{views: append([]*View(nil), views...)}
}

// Len returns the number of views.
func (s *Set) Len() int { return len(s.views) }

// Views returns a copy of the views.
func (s *Set) Views() []*View {
	return append([]*View(nil), s.views...)
}

// All yields every view.
func (s *Set) All() iter.Seq[*View] {
	return func(yield func(*View) bool) {
		for _, v := range s.views {
			if !yield(v) {
				return
			}
		}
	}
}

// PointCount returns the total number of points across all views.
func (s *Set) PointCount() int {
	n := 0
	for _, v := range s.views {
		n += v.Len()
	}
	return n
}

// Iter returns a new cursor positioned before the first view.
func (s *Set) Iter() *Iterator {
	return &Iterator{set: s}
}

// Release frees every view of the set.
func (s *Set) Release() {
	for _, v := range s.views {
		v.Release()
	}
}

// Iterator is a forward-only cursor over a Set.
//
// Independent iterators over the same set may be used concurrently.
type Iterator struct {
	set *Set
	pos int
}

// HasNext reports whether Next will return a view.
func (it *Iterator) HasNext() bool {
	return it.pos < len(it.set.views)
}

// Next returns the next view, or ErrIteratorExhausted past the end.
func (it *Iterator) Next() (*View, error) {
	if !it.HasNext() {
		return nil, ErrIteratorExhausted
	}
	v := it.set.views[it.pos]
	it.pos++
	return v, nil
}
