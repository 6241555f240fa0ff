package stage

import (
	"context"
	"fmt"

	"github.com/hupe1980/pointflow/dimension"
	"github.com/hupe1980/pointflow/internal/selection"
	"github.com/hupe1980/pointflow/layout"
	"github.com/hupe1980/pointflow/metadata"
	"github.com/hupe1980/pointflow/pointview"
)

const (
	// TypeRangeFilter keeps points whose dimensions fall within ranges.
	TypeRangeFilter = "filters.range"
	// TypeHeadFilter keeps the first points.
	TypeHeadFilter = "filters.head"
	// TypeDecimationFilter keeps every step-th point.
	TypeDecimationFilter = "filters.decimation"
	// TypeMergeFilter merges its input views into one.
	TypeMergeFilter = "filters.merge"
)

// selectPoints returns a new view holding the points of v listed in sel.
func selectPoints(sc *Context, v *pointview.View, sel *selection.Set) (*pointview.View, error) {
	pb, err := sc.NewBuilder(v.Layout(), pointview.WithSRS(v.SRS()), pointview.WithCapacity(sel.Len()))
	if err != nil {
		return nil, err
	}
	for idx := range sel.All() {
		if _, err := pb.CopyPoint(v, idx); err != nil {
			pb.Discard()
			return nil, err
		}
	}
	return pb.Build(), nil
}

// RangeFilter implements filters.range. Ranges over the same dimension are
// ORed together; ranges over different dimensions are ANDed.
type RangeFilter struct {
	Base

	groups [][]DimRange
	kept   int
	seen   int
}

// NewRangeFilter returns an unconfigured filters.range stage.
func NewRangeFilter() *RangeFilter {
	return &RangeFilter{Base: NewBase(TypeRangeFilter)}
}

// Configure implements Stage.
func (f *RangeFilter) Configure(opts *Options) error {
	if err := f.Base.Configure(opts); err != nil {
		return err
	}
	byDim := make(map[dimension.ID]int)
	for _, text := range opts.GetAll("limits") {
		ranges, err := ParseDimRanges(text)
		if err != nil {
			return err
		}
		for _, r := range ranges {
			i, ok := byDim[r.ID]
			if !ok {
				i = len(f.groups)
				byDim[r.ID] = i
				f.groups = append(f.groups, nil)
			}
			f.groups[i] = append(f.groups[i], r)
		}
	}
	if len(f.groups) == 0 {
		return fmt.Errorf("%w: %s requires limits", ErrInvalidOption, TypeRangeFilter)
	}
	return nil
}

// Run implements Stage.
func (f *RangeFilter) Run(ctx context.Context, sc *Context, in []*pointview.View) ([]*pointview.View, error) {
	out := make([]*pointview.View, 0, len(in))
	for _, v := range in {
		fv, err := f.ProcessChunk(ctx, sc, v)
		if err != nil {
			releaseAll(out)
			return nil, err
		}
		out = append(out, fv)
	}
	return out, f.Finish(ctx, sc)
}

// ProcessChunk implements Streamer.
func (f *RangeFilter) ProcessChunk(_ context.Context, sc *Context, chunk *pointview.View) (*pointview.View, error) {
	sel, err := f.match(chunk)
	if err != nil {
		return nil, err
	}
	defer selection.Put(sel)
	f.seen += chunk.Len()
	f.kept += sel.Len()
	return selectPoints(sc, chunk, sel)
}

// Finish implements Streamer.
func (f *RangeFilter) Finish(context.Context, *Context) error {
	f.Metadata().Set("points_in", metadata.Int(int64(f.seen)))
	f.Metadata().Set("points_out", metadata.Int(int64(f.kept)))
	return nil
}

func (f *RangeFilter) match(v *pointview.View) (*selection.Set, error) {
	result := selection.Get()
	result.AddRange(0, v.Len())
	group := selection.Get()
	defer selection.Put(group)
	for _, ranges := range f.groups {
		id := ranges[0].ID
		if _, err := v.Layout().Resolve(id); err != nil {
			selection.Put(result)
			return nil, fmt.Errorf("%s: %w", TypeRangeFilter, err)
		}
		group.Clear()
		for idx := range v.PointIDs() {
			x, _ := v.FieldFloat64(id, idx)
			for _, r := range ranges {
				if r.Contains(x) {
					group.Add(idx)
					break
				}
			}
		}
		result.And(group)
	}
	return result, nil
}

// HeadFilter implements filters.head. In standard mode the count applies to
// each view; in streamed mode it applies to the whole stream.
type HeadFilter struct {
	Base

	count int
	taken int
}

// NewHeadFilter returns an unconfigured filters.head stage.
func NewHeadFilter() *HeadFilter {
	return &HeadFilter{Base: NewBase(TypeHeadFilter), count: 10}
}

// Configure implements Stage.
func (f *HeadFilter) Configure(opts *Options) error {
	if err := f.Base.Configure(opts); err != nil {
		return err
	}
	var err error
	if f.count, err = opts.Int("count", f.count); err != nil {
		return err
	}
	if f.count < 0 {
		return fmt.Errorf("%w: count must not be negative", ErrInvalidOption)
	}
	return nil
}

// Run implements Stage.
func (f *HeadFilter) Run(ctx context.Context, sc *Context, in []*pointview.View) ([]*pointview.View, error) {
	out := make([]*pointview.View, 0, len(in))
	for _, v := range in {
		f.taken = 0
		fv, err := f.ProcessChunk(ctx, sc, v)
		if err != nil {
			releaseAll(out)
			return nil, err
		}
		out = append(out, fv)
	}
	return out, nil
}

// ProcessChunk implements Streamer.
func (f *HeadFilter) ProcessChunk(_ context.Context, sc *Context, chunk *pointview.View) (*pointview.View, error) {
	n := min(chunk.Len(), f.count-f.taken)
	f.taken += n
	sel := selection.Get()
	defer selection.Put(sel)
	sel.AddRange(0, n)
	return selectPoints(sc, chunk, sel)
}

// Finish implements Streamer.
func (f *HeadFilter) Finish(context.Context, *Context) error { return nil }

// DecimationFilter implements filters.decimation: it keeps every step-th
// point starting at offset, up to limit. Indexes count per view in standard
// mode and across the stream in streamed mode.
type DecimationFilter struct {
	Base

	step   int
	offset int
	limit  int
	index  int
}

// NewDecimationFilter returns an unconfigured filters.decimation stage.
func NewDecimationFilter() *DecimationFilter {
	return &DecimationFilter{Base: NewBase(TypeDecimationFilter), step: 1}
}

// Configure implements Stage.
func (f *DecimationFilter) Configure(opts *Options) error {
	if err := f.Base.Configure(opts); err != nil {
		return err
	}
	var err error
	if f.step, err = opts.Int("step", 1); err != nil {
		return err
	}
	if f.offset, err = opts.Int("offset", 0); err != nil {
		return err
	}
	if f.limit, err = opts.Int("limit", 0); err != nil {
		return err
	}
	if f.step < 1 || f.offset < 0 || f.limit < 0 {
		return fmt.Errorf("%w: step must be positive, offset and limit must not be negative", ErrInvalidOption)
	}
	return nil
}

// Run implements Stage.
func (f *DecimationFilter) Run(ctx context.Context, sc *Context, in []*pointview.View) ([]*pointview.View, error) {
	out := make([]*pointview.View, 0, len(in))
	for _, v := range in {
		f.index = 0
		fv, err := f.ProcessChunk(ctx, sc, v)
		if err != nil {
			releaseAll(out)
			return nil, err
		}
		out = append(out, fv)
	}
	return out, nil
}

// ProcessChunk implements Streamer.
func (f *DecimationFilter) ProcessChunk(_ context.Context, sc *Context, chunk *pointview.View) (*pointview.View, error) {
	sel := selection.Get()
	defer selection.Put(sel)
	base := f.index
	for idx := range chunk.PointIDs() {
		global := base + idx
		if f.limit > 0 && global >= f.limit {
			break
		}
		if global >= f.offset && (global-f.offset)%f.step == 0 {
			sel.Add(idx)
		}
	}
	f.index += chunk.Len()
	return selectPoints(sc, chunk, sel)
}

// Finish implements Streamer.
func (f *DecimationFilter) Finish(context.Context, *Context) error { return nil }

// MergeFilter implements filters.merge. It cannot stream.
type MergeFilter struct {
	Base
}

// NewMergeFilter returns an unconfigured filters.merge stage.
func NewMergeFilter() *MergeFilter {
	return &MergeFilter{Base: NewBase(TypeMergeFilter)}
}

// Run implements Stage. The merged view has the union of the input layouts
// and the spatial reference of the first input that has one.
func (f *MergeFilter) Run(ctx context.Context, sc *Context, in []*pointview.View) ([]*pointview.View, error) {
	layouts := make([]*layout.Layout, len(in))
	total := 0
	ref := f.SRS
	for i, v := range in {
		layouts[i] = v.Layout()
		total += v.Len()
		if ref.IsEmpty() {
			ref = v.SRS()
		}
	}
	pb, err := sc.NewBuilder(layout.Merge(layouts...), pointview.WithSRS(ref), pointview.WithCapacity(total))
	if err != nil {
		return nil, err
	}
	for _, v := range in {
		if err := ctx.Err(); err != nil {
			pb.Discard()
			return nil, err
		}
		for idx := range v.PointIDs() {
			if _, err := pb.CopyPoint(v, idx); err != nil {
				pb.Discard()
				return nil, err
			}
		}
	}
	f.Metadata().Set("inputs", metadata.Int(int64(len(in))))
	f.Metadata().Set("count", metadata.Int(int64(total)))
	return []*pointview.View{pb.Build()}, nil
}

func releaseAll(views []*pointview.View) {
	for _, v := range views {
		v.Release()
	}
}
