package stage

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/pointflow/dimension"
	"github.com/hupe1980/pointflow/metadata"
	"github.com/hupe1980/pointflow/pointview"
)

// TypeAssignFilter sets dimension values.
const TypeAssignFilter = "filters.assign"

// Assignment sets Target to Value for points within Range, or for every
// point when Range is nil.
type Assignment struct {
	Target dimension.ID
	Range  *DimRange
	Value  float64
}

// ParseAssignment parses "Dim[lo:hi]=value" or "Dim=value".
func ParseAssignment(text string) (Assignment, error) {
	lhs, rhs, ok := strings.Cut(text, "=")
	if !ok {
		return Assignment{}, fmt.Errorf("%w: assignment %q", ErrInvalidOption, text)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(rhs), 64)
	if err != nil {
		return Assignment{}, fmt.Errorf("%w: assignment %q: value", ErrInvalidOption, text)
	}
	lhs = strings.TrimSpace(lhs)
	if strings.ContainsAny(lhs, "[(") {
		r, err := ParseDimRange(lhs)
		if err != nil {
			return Assignment{}, err
		}
		return Assignment{Target: r.ID, Range: &r, Value: x}, nil
	}
	id, err := dimension.ByName(lhs)
	if err != nil {
		return Assignment{}, fmt.Errorf("%w: assignment %q: %v", ErrInvalidOption, text, err)
	}
	return Assignment{Target: id, Value: x}, nil
}

// AssignFilter implements filters.assign. Assignments apply in order, so a
// later range sees the values written by earlier assignments.
type AssignFilter struct {
	Base

	assignments []Assignment
	condition   []DimRange
	changed     int
}

// NewAssignFilter returns an unconfigured filters.assign stage.
func NewAssignFilter() *AssignFilter {
	return &AssignFilter{Base: NewBase(TypeAssignFilter)}
}

// Configure implements Stage. It accepts "assignment" entries, "value"
// entries of the form "Dim = v" and an optional "condition" range list that
// every point must satisfy.
func (f *AssignFilter) Configure(opts *Options) error {
	if err := f.Base.Configure(opts); err != nil {
		return err
	}
	for _, name := range []string{"assignment", "value"} {
		for _, text := range opts.GetAll(name) {
			a, err := ParseAssignment(text)
			if err != nil {
				return err
			}
			f.assignments = append(f.assignments, a)
		}
	}
	if len(f.assignments) == 0 {
		return fmt.Errorf("%w: %s requires assignment or value", ErrInvalidOption, TypeAssignFilter)
	}
	if cond, ok := opts.Get("condition"); ok {
		ranges, err := ParseDimRanges(cond)
		if err != nil {
			return err
		}
		f.condition = ranges
	}
	return nil
}

// Run implements Stage.
func (f *AssignFilter) Run(ctx context.Context, sc *Context, in []*pointview.View) ([]*pointview.View, error) {
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
func (f *AssignFilter) ProcessChunk(_ context.Context, sc *Context, chunk *pointview.View) (*pointview.View, error) {
	l := chunk.Layout()
	for _, a := range f.assignments {
		if _, err := l.Resolve(a.Target); err != nil {
			return nil, fmt.Errorf("%s: %w", TypeAssignFilter, err)
		}
	}
	for _, c := range f.condition {
		if _, err := l.Resolve(c.ID); err != nil {
			return nil, fmt.Errorf("%s: condition: %w", TypeAssignFilter, err)
		}
	}

	pb, err := sc.NewBuilder(l, pointview.WithSRS(chunk.SRS()), pointview.WithCapacity(chunk.Len()))
	if err != nil {
		return nil, err
	}
	current := make(map[dimension.ID]float64, len(f.assignments))
	for idx := range chunk.PointIDs() {
		if _, err := pb.CopyPoint(chunk, idx); err != nil {
			pb.Discard()
			return nil, err
		}
		if !f.satisfies(chunk, idx) {
			continue
		}
		clear(current)
		for _, a := range f.assignments {
			if a.Range != nil {
				x, ok := current[a.Range.ID]
				if !ok {
					x, _ = chunk.FieldFloat64(a.Range.ID, idx)
				}
				if !a.Range.Contains(x) {
					continue
				}
			}
			current[a.Target] = a.Value
			_ = pb.SetFloat64(a.Target, idx, a.Value)
			f.changed++
		}
	}
	return pb.Build(), nil
}

func (f *AssignFilter) satisfies(v *pointview.View, idx int) bool {
	for _, c := range f.condition {
		x, _ := v.FieldFloat64(c.ID, idx)
		if !c.Contains(x) {
			return false
		}
	}
	return true
}

// Finish implements Streamer.
func (f *AssignFilter) Finish(context.Context, *Context) error {
	f.Metadata().Set("assignments", metadata.Int(int64(f.changed)))
	return nil
}
