package stage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pointflow/blobstore"
	"github.com/hupe1980/pointflow/dimension"
	"github.com/hupe1980/pointflow/pointview"
	"github.com/hupe1980/pointflow/testutil"
)

func lidarView() *pointview.View {
	return testutil.MustBuildView(testutil.LidarLayout(), [][]float64{
		{1.5, 2.25, 3, 100, 2, 1.25, -7},
		{4, 5, 6.125, 200, 6, -2.5, 9},
	})
}

func TestTextWriter(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults", func(t *testing.T) {
		sc, _ := newTestContext(t)
		w := configured(t, TypeTextWriter, NewOptions().Add("filename", "out.csv"))
		in := []*pointview.View{lidarView()}
		out, err := w.Run(ctx, sc, in)
		require.NoError(t, err)
		assert.Equal(t, in, out)

		data, err := sc.ReadFile(ctx, "out.csv")
		require.NoError(t, err)
		assert.Equal(t,
			"X,Y,Z,Intensity,Classification,ScanAngleRank,PassiveSignal\n"+
				"1.500,2.250,3.000,100,2,1.250,-7\n"+
				"4.000,5.000,6.125,200,6,-2.500,9\n",
			string(data))
	})

	t.Run("OrderAndPrecision", func(t *testing.T) {
		sc, _ := newTestContext(t)
		w := configured(t, TypeTextWriter, NewOptions().
			Add("filename", "out.txt").
			Add("order", "Z, X").
			Add("precision", "1").
			Add("delimiter", ";").
			Add("write_header", "false"))
		_, err := w.Run(ctx, sc, []*pointview.View{lidarView()})
		require.NoError(t, err)

		data, err := sc.ReadFile(ctx, "out.txt")
		require.NoError(t, err)
		assert.Equal(t, "3.0;1.5\n6.1;4.0\n", string(data))
	})

	t.Run("KeepUnspecified", func(t *testing.T) {
		sc, _ := newTestContext(t)
		w := configured(t, TypeTextWriter, NewOptions().
			Add("filename", "out.csv").
			Add("order", "Intensity").
			Add("keep_unspecified", "true"))
		_, err := w.Run(ctx, sc, []*pointview.View{lidarView()})
		require.NoError(t, err)
		data, err := sc.ReadFile(ctx, "out.csv")
		require.NoError(t, err)
		assert.Contains(t, string(data), "Intensity,X,Y,Z,")
	})

	t.Run("MissingDimensionsAreZero", func(t *testing.T) {
		sc, _ := newTestContext(t)
		w := configured(t, TypeTextWriter, NewOptions().Add("filename", "m.csv").Add("precision", "0"))
		xyz := testutil.MustBuildView(testutil.XYZ(), [][]float64{{7, 8, 9}})
		_, err := w.Run(ctx, sc, []*pointview.View{xyz, lidarView()})
		require.NoError(t, err)
		data, err := sc.ReadFile(ctx, "m.csv")
		require.NoError(t, err)
		assert.Contains(t, string(data), "\n7,8,9,0,0,0,0\n")
	})

	t.Run("RoundTrip", func(t *testing.T) {
		sc, _ := newTestContext(t)
		w := configured(t, TypeTextWriter, NewOptions().Add("filename", "rt.csv"))
		_, err := w.Run(ctx, sc, []*pointview.View{lidarView()})
		require.NoError(t, err)

		r := configured(t, TypeTextReader, NewOptions().Add("filename", "rt.csv"))
		out, err := r.Run(ctx, sc, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{1.5, 4}, viewXs(t, out[0]))
		ps, err := out[0].FieldFloat64(dimension.PassiveSignal, 0)
		require.NoError(t, err)
		assert.Equal(t, -7.0, ps)
	})

	t.Run("StreamedWithoutChunks", func(t *testing.T) {
		sc, _ := newTestContext(t)
		w := configured(t, TypeTextWriter, NewOptions().Add("filename", "empty.csv")).(Streamer)
		require.NoError(t, w.Finish(ctx, sc))
		data, err := sc.ReadFile(ctx, "empty.csv")
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("AbortDiscards", func(t *testing.T) {
		sc, _ := newTestContext(t)
		w := configured(t, TypeTextWriter, NewOptions().Add("filename", "partial.csv"))
		_, err := w.(Streamer).ProcessChunk(ctx, sc, lidarView())
		require.NoError(t, err)
		w.(Aborter).Abort()
		_, err = sc.ReadFile(ctx, "partial.csv")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("UnknownOrder", func(t *testing.T) {
		err := NewTextWriter().Configure(NewOptions().Add("filename", "x").Add("order", "Nope"))
		assert.ErrorIs(t, err, ErrInvalidOption)
	})
}

func TestNullWriter(t *testing.T) {
	sc, _ := newTestContext(t)
	w := configured(t, TypeNullWriter, NewOptions())
	in := []*pointview.View{lidarView(), lidarView()}
	out, err := w.Run(context.Background(), sc, in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	count, _ := w.Metadata().Get("count")
	n, _ := count.AsInt64()
	assert.Equal(t, int64(4), n)
}

func TestSQLiteWriter(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sc := NewContext(WithStore(blobstore.NewLocalStore(dir)))

	in := []*pointview.View{lidarView(), testutil.MustBuildView(testutil.XYZ(), [][]float64{{7, 8, 9}})}
	w := configured(t, TypeSQLiteWriter, NewOptions().
		Add("filename", "db/points.sqlite").
		Add("table", "lidar"))
	out, err := w.Run(ctx, sc, in)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	db, err := sql.Open("sqlite", filepath.Join(dir, "db", "points.sqlite"))
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lidar").Scan(&n))
	assert.Equal(t, 3, n)

	var (
		x         float64
		intensity int64
		signal    int64
	)
	row := db.QueryRowContext(ctx, `SELECT "X", "Intensity", "PassiveSignal" FROM lidar WHERE "Classification" = 6`)
	require.NoError(t, row.Scan(&x, &intensity, &signal))
	assert.Equal(t, 4.0, x)
	assert.Equal(t, int64(200), intensity)
	assert.Equal(t, int64(9), signal)

	require.NoError(t, db.QueryRowContext(ctx, `SELECT "Intensity" FROM lidar WHERE "X" = 7`).Scan(&intensity))
	assert.Equal(t, int64(0), intensity)

	t.Run("InvalidTable", func(t *testing.T) {
		err := NewSQLiteWriter().Configure(NewOptions().Add("filename", "a.sqlite").Add("table", "drop table;"))
		assert.ErrorIs(t, err, ErrInvalidOption)
	})
}
