package pointview

import (
	"iter"

	"github.com/hupe1980/pointflow/dimension"
	"github.com/hupe1980/pointflow/internal/arena"
	"github.com/hupe1980/pointflow/internal/conv"
	"github.com/hupe1980/pointflow/layout"
	"github.com/hupe1980/pointflow/srs"
)

// Number is the set of scalar types fields can be read as.
type Number = conv.Number

// View is an immutable sequence of point records with a fixed schema.
type View struct {
	id      int
	layout  *layout.Layout
	srs     srs.SpatialReference
	records *arena.Records
}

// ID returns the identity of the view, stable for its lifetime.
func (v *View) ID() int { return v.id }

// Len returns the number of points.
func (v *View) Len() int { return v.records.Len() }

// IsEmpty reports whether the view holds no points.
func (v *View) IsEmpty() bool { return v.Len() == 0 }

// Layout returns the layout shared by every record of the view.
func (v *View) Layout() *layout.Layout { return v.layout }

// SRS returns the spatial reference of the view.
func (v *View) SRS() srs.SpatialReference { return v.srs }

// WKT returns the spatial reference as WKT, possibly empty.
func (v *View) WKT() string { return v.srs.WKT }

// PROJ4 returns the spatial reference as a PROJ.4 string, possibly empty.
func (v *View) PROJ4() string { return v.srs.PROJ4 }

// PointIDs yields every valid point index in order.
func (v *View) PointIDs() iter.Seq[int] {
	return func(yield func(int) bool) {
		n := v.Len()
		for i := 0; i < n; i++ {
			if !yield(i) {
				return
			}
		}
	}
}

// Bytes returns a copy of the raw record block in layout order.
func (v *View) Bytes() []byte {
	return append([]byte(nil), v.records.Bytes()...)
}

// Release frees the view storage and its memory reservation. The view must
// not be used afterwards.
func (v *View) Release() {
	v.records.Free()
}

func (v *View) checkIndex(idx int) error {
	if idx < 0 || idx >= v.Len() {
		return &IndexOutOfRangeError{Index: idx, Len: v.Len()}
	}
	return nil
}

func (v *View) field(id dimension.ID, idx int) (layout.Detail, []byte, error) {
	if err := v.checkIndex(idx); err != nil {
		return layout.Detail{}, nil, err
	}
	d, err := v.layout.Resolve(id)
	if err != nil {
		return layout.Detail{}, nil, err
	}
	return d, v.records.Record(idx)[d.Offset:], nil
}
