package pointview

import (
	"github.com/hupe1980/pointflow/dimension"
	"github.com/hupe1980/pointflow/internal/arena"
	"github.com/hupe1980/pointflow/internal/conv"
	"github.com/hupe1980/pointflow/layout"
	"github.com/hupe1980/pointflow/srs"
)

// MemoryReserver accounts for the storage of views under construction.
type MemoryReserver interface {
	ReserveMemory(amount int64) error
	ReleaseMemory(amount int64)
}

// BuilderOption configures a Builder.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	id       int
	srs      srs.SpatialReference
	capacity int
	reserver MemoryReserver
}

// WithID sets the identity of the built view.
func WithID(id int) BuilderOption {
	return func(o *builderOptions) { o.id = id }
}

// WithSRS sets the spatial reference of the built view.
func WithSRS(ref srs.SpatialReference) BuilderOption {
	return func(o *builderOptions) { o.srs = ref }
}

// WithCapacity preallocates room for n points.
func WithCapacity(n int) BuilderOption {
	return func(o *builderOptions) { o.capacity = n }
}

// WithMemoryReserver accounts view storage against r.
func WithMemoryReserver(r MemoryReserver) BuilderOption {
	return func(o *builderOptions) { o.reserver = r }
}

// Builder accumulates points for a new View.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	opts    builderOptions
	layout  *layout.Layout
	records *arena.Records
	built   bool
}

// NewBuilder returns a builder for views with layout l.
func NewBuilder(l *layout.Layout, opts ...BuilderOption) (*Builder, error) {
	var o builderOptions
	for _, opt := range opts {
		opt(&o)
	}
	var arenaOpts []arena.Option
	if o.reserver != nil {
		arenaOpts = append(arenaOpts, arena.WithMemoryReserver(o.reserver))
	}
	records, err := arena.NewRecords(l.PointSize(), o.capacity, arenaOpts...)
	if err != nil {
		return nil, err
	}
	return &Builder{opts: o, layout: l, records: records}, nil
}

// Layout returns the layout of the view under construction.
func (b *Builder) Layout() *layout.Layout { return b.layout }

// Len returns the number of points appended so far.
func (b *Builder) Len() int { return b.records.Len() }

// SetSRS replaces the spatial reference of the view under construction.
func (b *Builder) SetSRS(ref srs.SpatialReference) { b.opts.srs = ref }

// AppendPoint appends a zeroed point and returns its index.
func (b *Builder) AppendPoint() (int, error) {
	if b.built {
		return 0, ErrBuilt
	}
	idx, _, err := b.records.Alloc()
	return idx, err
}

// AppendRecords appends the points in raw, which holds whole records in the
// builder's layout, and returns how many were appended.
func (b *Builder) AppendRecords(raw []byte) (int, error) {
	if b.built {
		return 0, ErrBuilt
	}
	size := b.layout.PointSize()
	if size == 0 || len(raw)%size != 0 {
		return 0, ErrPartialRecord
	}
	n := len(raw) / size
	for i := range n {
		_, rec, err := b.records.Alloc()
		if err != nil {
			return i, err
		}
		copy(rec, raw[i*size:])
	}
	return n, nil
}

func (b *Builder) slot(id dimension.ID, idx int) (layout.Detail, []byte, error) {
	if b.built {
		return layout.Detail{}, nil, ErrBuilt
	}
	if idx < 0 || idx >= b.records.Len() {
		return layout.Detail{}, nil, &IndexOutOfRangeError{Index: idx, Len: b.records.Len()}
	}
	d, err := b.layout.Resolve(id)
	if err != nil {
		return layout.Detail{}, nil, err
	}
	return d, b.records.Record(idx)[d.Offset:], nil
}

// SetField stores x into dimension id of point idx, converting it to the
// dimension's encoding.
func SetField[T Number](b *Builder, id dimension.ID, idx int, x T) error {
	d, rec, err := b.slot(id, idx)
	if err != nil {
		return err
	}
	conv.Write(d.Encoding, rec, x)
	return nil
}

// SetFloat64 stores x into dimension id of point idx. See SetField.
func (b *Builder) SetFloat64(id dimension.ID, idx int, x float64) error {
	return SetField(b, id, idx, x)
}

// SetInt64 stores x into dimension id of point idx. See SetField.
func (b *Builder) SetInt64(id dimension.ID, idx int, x int64) error {
	return SetField(b, id, idx, x)
}

// SetUint64 stores x into dimension id of point idx. See SetField.
func (b *Builder) SetUint64(id dimension.ID, idx int, x uint64) error {
	return SetField(b, id, idx, x)
}

// SetValue stores val into dimension id of point idx, converting it from
// its own encoding.
func (b *Builder) SetValue(id dimension.ID, idx int, val Value) error {
	d, rec, err := b.slot(id, idx)
	if err != nil {
		return err
	}
	conv.Convert(rec, d.Encoding, val.raw[:], val.Encoding)
	return nil
}

// CopyPoint appends a point whose fields are copied from point srcIdx of
// src. Dimensions src does not carry are left zero; dimensions only src
// carries are dropped.
func (b *Builder) CopyPoint(src *View, srcIdx int) (int, error) {
	if err := src.checkIndex(srcIdx); err != nil {
		return 0, err
	}
	idx, err := b.AppendPoint()
	if err != nil {
		return 0, err
	}
	from := src.records.Record(srcIdx)
	to := b.records.Record(idx)
	if src.layout.Equal(b.layout) {
		copy(to, from)
		return idx, nil
	}
	for _, d := range b.layout.Details() {
		s, err := src.layout.Resolve(d.ID)
		if err != nil {
			continue
		}
		conv.Convert(to[d.Offset:], d.Encoding, from[s.Offset:], s.Encoding)
	}
	return idx, nil
}

// Build returns the view. The builder cannot be used afterwards.
func (b *Builder) Build() *View {
	b.built = true
	return &View{
		id:      b.opts.id,
		layout:  b.layout,
		srs:     b.opts.srs,
		records: b.records,
	}
}

// Discard frees the storage of a builder whose view will not be built.
func (b *Builder) Discard() {
	if !b.built {
		b.built = true
		b.records.Free()
	}
}
