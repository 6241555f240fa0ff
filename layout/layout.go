package layout

import (
	"fmt"

	"github.com/hupe1980/pointflow/dimension"
)

// Detail locates one dimension within a point record.
type Detail struct {
	ID       dimension.ID
	Encoding dimension.Encoding
	Offset   int
	Size     int
}

// Layout maps the dimensions of one schema to their record positions.
type Layout struct {
	details   []Detail
	index     map[dimension.ID]int
	pointSize int
}

// New computes the layout of the given schema. Order is preserved.
func New(types ...dimension.Type) (*Layout, error) {
	l := &Layout{
		details: make([]Detail, 0, len(types)),
		index:   make(map[dimension.ID]int, len(types)),
	}
	for _, t := range types {
		if !t.Encoding.Valid() {
			return nil, fmt.Errorf("%w: %s has encoding %s", ErrInvalidEncoding, t.ID, t.Encoding)
		}
		if _, dup := l.index[t.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDimension, t.ID)
		}
		d := Detail{ID: t.ID, Encoding: t.Encoding, Offset: l.pointSize, Size: t.Encoding.Size()}
		l.index[t.ID] = len(l.details)
		l.details = append(l.details, d)
		l.pointSize += d.Size
	}
	return l, nil
}

// MustNew is like New but panics on error. Intended for fixed schemas.
func MustNew(types ...dimension.Type) *Layout {
	l, err := New(types...)
	if err != nil {
		panic(err)
	}
	return l
}

// Resolve returns the position of id. It never falls back to a default.
func (l *Layout) Resolve(id dimension.ID) (Detail, error) {
	i, ok := l.index[id]
	if !ok {
		return Detail{}, &DimensionNotInSchemaError{ID: id}
	}
	return l.details[i], nil
}

// Has reports whether id is part of the layout.
func (l *Layout) Has(id dimension.ID) bool {
	_, ok := l.index[id]
	return ok
}

// Offset returns the byte offset of id within a record.
func (l *Layout) Offset(id dimension.ID) (int, error) {
	d, err := l.Resolve(id)
	return d.Offset, err
}

// Size returns the stored byte width of id.
func (l *Layout) Size(id dimension.ID) (int, error) {
	d, err := l.Resolve(id)
	return d.Size, err
}

// Encoding returns the stored encoding of id.
func (l *Layout) Encoding(id dimension.ID) (dimension.Encoding, error) {
	d, err := l.Resolve(id)
	return d.Encoding, err
}

// TotalSize sums the stored sizes of ids. Order is irrelevant to the result
// and duplicates are counted each time they appear.
func (l *Layout) TotalSize(ids []dimension.ID) (int, error) {
	total := 0
	for _, id := range ids {
		d, err := l.Resolve(id)
		if err != nil {
			return 0, err
		}
		total += d.Size
	}
	return total, nil
}

// PackedSize sums the sizes of the requested encodings after checking that
// every requested dimension is present.
func (l *Layout) PackedSize(types []dimension.Type) (int, error) {
	total := 0
	for _, t := range types {
		if !l.Has(t.ID) {
			return 0, &DimensionNotInSchemaError{ID: t.ID}
		}
		if !t.Encoding.Valid() {
			return 0, fmt.Errorf("%w: %s has encoding %s", ErrInvalidEncoding, t.ID, t.Encoding)
		}
		total += t.Encoding.Size()
	}
	return total, nil
}

// PointSize returns the byte size of one record.
func (l *Layout) PointSize() int { return l.pointSize }

// DimensionCount returns the number of dimensions.
func (l *Layout) DimensionCount() int { return len(l.details) }

// Details returns the dimension positions in schema order.
func (l *Layout) Details() []Detail {
	return append([]Detail(nil), l.details...)
}

// Types returns the schema in order.
func (l *Layout) Types() []dimension.Type {
	out := make([]dimension.Type, len(l.details))
	for i, d := range l.details {
		out[i] = dimension.Type{ID: d.ID, Encoding: d.Encoding}
	}
	return out
}

// IDs returns the dimension IDs in schema order.
func (l *Layout) IDs() []dimension.ID {
	out := make([]dimension.ID, len(l.details))
	for i, d := range l.details {
		out[i] = d.ID
	}
	return out
}

// Equal reports whether l and o describe the same schema in the same order.
func (l *Layout) Equal(o *Layout) bool {
	if l == o {
		return true
	}
	if l == nil || o == nil || len(l.details) != len(o.details) {
		return false
	}
	for i := range l.details {
		if l.details[i] != o.details[i] {
			return false
		}
	}
	return true
}

// Merge returns the union of the given layouts in first-seen order. When a
// dimension appears more than once, its first encoding wins.
func Merge(layouts ...*Layout) *Layout {
	var types []dimension.Type
	seen := make(map[dimension.ID]bool)
	for _, l := range layouts {
		for _, d := range l.details {
			if seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			types = append(types, dimension.Type{ID: d.ID, Encoding: d.Encoding})
		}
	}
	return MustNew(types...)
}
