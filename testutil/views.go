package testutil

import (
	"github.com/hupe1980/pointflow/dimension"
	"github.com/hupe1980/pointflow/layout"
	"github.com/hupe1980/pointflow/pointview"
)

// XYZ returns a layout of X, Y and Z stored as Double.
func XYZ() *layout.Layout {
	return layout.MustNew(
		dimension.Type{ID: dimension.X, Encoding: dimension.Double},
		dimension.Type{ID: dimension.Y, Encoding: dimension.Double},
		dimension.Type{ID: dimension.Z, Encoding: dimension.Double},
	)
}

// LidarLayout returns a layout mixing every encoding family: X, Y, Z as
// Double, Intensity as Unsigned16, Classification as Unsigned8, ScanAngleRank
// as Float and PassiveSignal as Signed32.
func LidarLayout() *layout.Layout {
	return layout.MustNew(
		dimension.Type{ID: dimension.X, Encoding: dimension.Double},
		dimension.Type{ID: dimension.Y, Encoding: dimension.Double},
		dimension.Type{ID: dimension.Z, Encoding: dimension.Double},
		dimension.Type{ID: dimension.Intensity, Encoding: dimension.Unsigned16},
		dimension.Type{ID: dimension.Classification, Encoding: dimension.Unsigned8},
		dimension.Type{ID: dimension.ScanAngleRank, Encoding: dimension.Float},
		dimension.Type{ID: dimension.PassiveSignal, Encoding: dimension.Signed32},
	)
}

// BuildView builds a view from rows whose values follow the layout order.
// Missing trailing values stay zero.
func BuildView(l *layout.Layout, rows [][]float64, opts ...pointview.BuilderOption) (*pointview.View, error) {
	b, err := pointview.NewBuilder(l, append([]pointview.BuilderOption{pointview.WithCapacity(len(rows))}, opts...)...)
	if err != nil {
		return nil, err
	}
	ids := l.IDs()
	for _, row := range rows {
		idx, err := b.AppendPoint()
		if err != nil {
			return nil, err
		}
		for j, val := range row {
			if j >= len(ids) {
				break
			}
			if err := b.SetFloat64(ids[j], idx, val); err != nil {
				return nil, err
			}
		}
	}
	return b.Build(), nil
}

// MustBuildView is like BuildView but panics on error.
func MustBuildView(l *layout.Layout, rows [][]float64, opts ...pointview.BuilderOption) *pointview.View {
	v, err := BuildView(l, rows, opts...)
	if err != nil {
		panic(err)
	}
	return v
}

// RandomXYZView builds a view of n uniformly distributed XYZ points in
// [0, extent).
func (r *RNG) RandomXYZView(n int, extent float64, opts ...pointview.BuilderOption) *pointview.View {
	return MustBuildView(XYZ(), r.UniformPoints(n, 3, 0, extent), opts...)
}
