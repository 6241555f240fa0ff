package stage

import (
	"context"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/pointflow/dimension"
	"github.com/hupe1980/pointflow/metadata"
	"github.com/hupe1980/pointflow/pointview"
)

// TypeStatsFilter computes per-dimension summary statistics.
const TypeStatsFilter = "filters.stats"

// Summary holds the statistics of one dimension. Variance is the sample
// variance.
type Summary struct {
	ID      dimension.ID
	Count   int
	Minimum float64
	Maximum float64
	Average float64
	m2      float64
}

// Variance returns the sample variance, or 0 for fewer than two values.
func (s *Summary) Variance() float64 {
	if s.Count < 2 {
		return 0
	}
	return s.m2 / float64(s.Count-1)
}

// Stddev returns the sample standard deviation.
func (s *Summary) Stddev() float64 {
	return math.Sqrt(s.Variance())
}

// add merges the statistics of xs, combining partial moments so that chunks
// can be summarized independently.
func (s *Summary) add(xs []float64) {
	if len(xs) == 0 {
		return
	}
	mean, variance := stat.MeanVariance(xs, nil)
	m2 := 0.0
	if len(xs) > 1 {
		m2 = variance * float64(len(xs)-1)
	}
	lo, hi := floats.Min(xs), floats.Max(xs)
	if s.Count == 0 {
		s.Count, s.Minimum, s.Maximum, s.Average, s.m2 = len(xs), lo, hi, mean, m2
		return
	}
	na, nb := float64(s.Count), float64(len(xs))
	n := na + nb
	delta := mean - s.Average
	s.Average += delta * nb / n
	s.m2 += m2 + delta*delta*na*nb/n
	s.Count += len(xs)
	s.Minimum = math.Min(s.Minimum, lo)
	s.Maximum = math.Max(s.Maximum, hi)
}

// StatsFilter implements filters.stats. Points pass through unchanged.
type StatsFilter struct {
	Base

	dims      []dimension.ID
	summaries []*Summary
	byID      map[dimension.ID]*Summary
	buf       []float64
}

// NewStatsFilter returns an unconfigured filters.stats stage.
func NewStatsFilter() *StatsFilter {
	return &StatsFilter{Base: NewBase(TypeStatsFilter), byID: make(map[dimension.ID]*Summary)}
}

// Configure implements Stage.
func (f *StatsFilter) Configure(opts *Options) error {
	if err := f.Base.Configure(opts); err != nil {
		return err
	}
	if list, ok := opts.Get("dimensions"); ok {
		for _, name := range strings.Split(list, ",") {
			if name = strings.TrimSpace(name); name == "" {
				continue
			}
			id, err := dimension.ByName(name)
			if err != nil {
				return fmt.Errorf("%w: dimensions: %v", ErrInvalidOption, err)
			}
			f.dims = append(f.dims, id)
		}
	}
	return nil
}

// Summaries returns the statistics gathered so far, in dimension order.
func (f *StatsFilter) Summaries() []*Summary { return f.summaries }

// Run implements Stage.
func (f *StatsFilter) Run(ctx context.Context, sc *Context, in []*pointview.View) ([]*pointview.View, error) {
	for _, v := range in {
		if _, err := f.ProcessChunk(ctx, sc, v); err != nil {
			return nil, err
		}
	}
	return in, f.Finish(ctx, sc)
}

// ProcessChunk implements Streamer.
func (f *StatsFilter) ProcessChunk(_ context.Context, _ *Context, chunk *pointview.View) (*pointview.View, error) {
	ids := f.dims
	if len(ids) == 0 {
		ids = chunk.Layout().IDs()
	}
	for _, id := range ids {
		if _, err := chunk.Layout().Resolve(id); err != nil {
			if len(f.dims) > 0 {
				return nil, fmt.Errorf("%s: %w", TypeStatsFilter, err)
			}
			continue
		}
		f.buf = f.buf[:0]
		for idx := range chunk.PointIDs() {
			x, _ := chunk.FieldFloat64(id, idx)
			f.buf = append(f.buf, x)
		}
		f.summary(id).add(f.buf)
	}
	return chunk, nil
}

func (f *StatsFilter) summary(id dimension.ID) *Summary {
	s, ok := f.byID[id]
	if !ok {
		s = &Summary{ID: id}
		f.byID[id] = s
		f.summaries = append(f.summaries, s)
	}
	return s
}

// Finish implements Streamer.
func (f *StatsFilter) Finish(context.Context, *Context) error {
	stats := make([]metadata.Value, 0, len(f.summaries))
	for i, s := range f.summaries {
		o := metadata.NewObject().
			Set("position", metadata.Int(int64(i))).
			Set("name", metadata.String(s.ID.Name())).
			Set("count", metadata.Int(int64(s.Count))).
			Set("minimum", metadata.Float(s.Minimum)).
			Set("maximum", metadata.Float(s.Maximum)).
			Set("average", metadata.Float(s.Average)).
			Set("stddev", metadata.Float(s.Stddev())).
			Set("variance", metadata.Float(s.Variance()))
		stats = append(stats, metadata.ObjectValue(o))
	}
	f.Metadata().Set("statistic", metadata.Array(stats))
	return nil
}
