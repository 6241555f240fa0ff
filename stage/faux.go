package stage

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/hupe1980/pointflow/dimension"
	"github.com/hupe1980/pointflow/layout"
	"github.com/hupe1980/pointflow/metadata"
	"github.com/hupe1980/pointflow/pointview"
)

// TypeFauxReader generates synthetic points.
const TypeFauxReader = "readers.faux"

// FauxMode selects how readers.faux places points.
type FauxMode string

const (
	// FauxConstant puts every point at the lower bounds.
	FauxConstant FauxMode = "constant"
	// FauxRamp spreads points linearly from the lower to the upper bounds.
	FauxRamp FauxMode = "ramp"
	// FauxRandom draws coordinates uniformly within the bounds.
	FauxRandom FauxMode = "random"
	// FauxUniform is an alias of FauxRandom.
	FauxUniform FauxMode = "uniform"
	// FauxNormal draws coordinates from a normal distribution.
	FauxNormal FauxMode = "normal"
	// FauxGrid places one point at every integer position within the bounds.
	FauxGrid FauxMode = "grid"
)

// Bounds is an axis aligned box.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// ParseBounds parses "([x0,x1],[y0,y1])" or "([x0,x1],[y0,y1],[z0,z1])".
func ParseBounds(text string) (Bounds, error) {
	clean := strings.NewReplacer("(", "", ")", "", "[", "", "]", "", " ", "").Replace(text)
	parts := strings.Split(clean, ",")
	if len(parts) != 4 && len(parts) != 6 {
		return Bounds{}, fmt.Errorf("%w: bounds %q", ErrInvalidOption, text)
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("%w: bounds %q", ErrInvalidOption, text)
		}
		vals[i] = f
	}
	b := Bounds{MinX: vals[0], MaxX: vals[1], MinY: vals[2], MaxY: vals[3]}
	if len(vals) == 6 {
		b.MinZ, b.MaxZ = vals[4], vals[5]
	}
	return b, nil
}

// FauxReader implements readers.faux.
type FauxReader struct {
	Base

	count   int
	mode    FauxMode
	bounds  Bounds
	mean    [3]float64
	stddev  [3]float64
	seed    uint64
	returns int
}

// NewFauxReader returns an unconfigured readers.faux stage.
func NewFauxReader() *FauxReader {
	return &FauxReader{
		Base:   NewBase(TypeFauxReader),
		mode:   FauxRandom,
		bounds: Bounds{MaxX: 1, MaxY: 1, MaxZ: 1},
		stddev: [3]float64{1, 1, 1},
	}
}

var fauxLayout = layout.MustNew(
	dimension.Type{ID: dimension.X, Encoding: dimension.Double},
	dimension.Type{ID: dimension.Y, Encoding: dimension.Double},
	dimension.Type{ID: dimension.Z, Encoding: dimension.Double},
	dimension.Type{ID: dimension.OffsetTime, Encoding: dimension.Unsigned32},
	dimension.Type{ID: dimension.ReturnNumber, Encoding: dimension.Unsigned8},
	dimension.Type{ID: dimension.NumberOfReturns, Encoding: dimension.Unsigned8},
)

// Configure implements Stage.
func (r *FauxReader) Configure(opts *Options) error {
	if err := r.Base.Configure(opts); err != nil {
		return err
	}
	var err error
	if r.count, err = opts.Int("count", 0); err != nil {
		return err
	}
	if r.count < 0 {
		return fmt.Errorf("%w: count must not be negative", ErrInvalidOption)
	}
	switch m := FauxMode(strings.ToLower(opts.String("mode", string(FauxRandom)))); m {
	case FauxConstant, FauxRamp, FauxRandom, FauxUniform, FauxNormal, FauxGrid:
		r.mode = m
	default:
		return fmt.Errorf("%w: mode %q", ErrInvalidOption, m)
	}
	if text, ok := opts.Get("bounds"); ok {
		if r.bounds, err = ParseBounds(text); err != nil {
			return err
		}
	}
	for i, axis := range []string{"x", "y", "z"} {
		if r.mean[i], err = opts.Float("mean_"+axis, 0); err != nil {
			return err
		}
		if r.stddev[i], err = opts.Float("stdev_"+axis, 1); err != nil {
			return err
		}
	}
	if r.seed, err = opts.Uint64("seed", 0); err != nil {
		return err
	}
	if r.returns, err = opts.Int("number_of_returns", 0); err != nil {
		return err
	}
	if r.returns < 0 || r.returns > 10 {
		return fmt.Errorf("%w: number_of_returns must be in [0, 10]", ErrInvalidOption)
	}
	return nil
}

// Run implements Stage.
func (r *FauxReader) Run(ctx context.Context, sc *Context, _ []*pointview.View) ([]*pointview.View, error) {
	var out *pointview.View
	err := r.generate(ctx, sc, math.MaxInt, func(v *pointview.View) error {
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return []*pointview.View{out}, nil
}

// Stream implements Source.
func (r *FauxReader) Stream(ctx context.Context, sc *Context, chunkSize int, emit func(*pointview.View) error) error {
	return r.generate(ctx, sc, chunkSize, emit)
}

func (r *FauxReader) total() int {
	if r.mode != FauxGrid {
		return r.count
	}
	return gridSteps(r.bounds.MinX, r.bounds.MaxX) *
		gridSteps(r.bounds.MinY, r.bounds.MaxY) *
		gridSteps(r.bounds.MinZ, r.bounds.MaxZ)
}

func gridSteps(lo, hi float64) int {
	if hi <= lo {
		return 1
	}
	return int(math.Ceil(hi - lo))
}

// generate builds the points in chunks of at most chunkSize and always emits
// at least one view.
func (r *FauxReader) generate(ctx context.Context, sc *Context, chunkSize int, emit func(*pointview.View) error) error {
	total := r.total()
	rng := rand.New(rand.NewPCG(r.seed, r.seed^0x9e3779b97f4a7c15))
	b := r.bounds

	var delta [3]float64
	if total > 1 {
		delta = [3]float64{
			(b.MaxX - b.MinX) / float64(total-1),
			(b.MaxY - b.MinY) / float64(total-1),
			(b.MaxZ - b.MinZ) / float64(total-1),
		}
	}
	nx, ny := gridSteps(b.MinX, b.MaxX), gridSteps(b.MinY, b.MaxY)

	point := func(i int) (x, y, z float64) {
		switch r.mode {
		case FauxConstant:
			return b.MinX, b.MinY, b.MinZ
		case FauxRamp:
			fi := float64(i)
			return b.MinX + delta[0]*fi, b.MinY + delta[1]*fi, b.MinZ + delta[2]*fi
		case FauxNormal:
			return r.mean[0] + r.stddev[0]*rng.NormFloat64(),
				r.mean[1] + r.stddev[1]*rng.NormFloat64(),
				r.mean[2] + r.stddev[2]*rng.NormFloat64()
		case FauxGrid:
			return b.MinX + float64(i%nx), b.MinY + float64((i/nx)%ny), b.MinZ + float64(i/(nx*ny))
		default:
			return b.MinX + rng.Float64()*(b.MaxX-b.MinX),
				b.MinY + rng.Float64()*(b.MaxY-b.MinY),
				b.MinZ + rng.Float64()*(b.MaxZ-b.MinZ)
		}
	}

	i := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := min(chunkSize, total-i)
		pb, err := sc.NewBuilder(fauxLayout, pointview.WithCapacity(n))
		if err != nil {
			return err
		}
		r.applySRS(pb)
		for ; n > 0; n-- {
			idx, err := pb.AppendPoint()
			if err != nil {
				pb.Discard()
				return err
			}
			x, y, z := point(i)
			_ = pb.SetFloat64(dimension.X, idx, x)
			_ = pb.SetFloat64(dimension.Y, idx, y)
			_ = pb.SetFloat64(dimension.Z, idx, z)
			_ = pb.SetUint64(dimension.OffsetTime, idx, uint64(i))
			if r.returns > 0 {
				_ = pb.SetUint64(dimension.ReturnNumber, idx, uint64(i%r.returns+1))
				_ = pb.SetUint64(dimension.NumberOfReturns, idx, uint64(r.returns))
			}
			i++
		}
		if err := emit(pb.Build()); err != nil {
			return err
		}
		if i >= total {
			break
		}
	}
	r.Metadata().Set("count", metadata.Int(int64(i)))
	r.Metadata().Set("mode", metadata.String(string(r.mode)))
	return nil
}
