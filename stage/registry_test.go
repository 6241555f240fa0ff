package stage

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pointflow/blobstore"
	"github.com/hupe1980/pointflow/dimension"
	"github.com/hupe1980/pointflow/pointview"
)

func newTestContext(t *testing.T) (*Context, *blobstore.MemoryStore) {
	t.Helper()
	store := blobstore.NewMemoryStore()
	return NewContext(WithStore(store), WithChunkSize(4)), store
}

func configured(t *testing.T, typ string, opts *Options) Stage {
	t.Helper()
	s, err := DefaultRegistry().New(typ)
	require.NoError(t, err)
	require.NoError(t, s.Configure(opts))
	return s
}

func TestKindOf(t *testing.T) {
	k, ok := KindOf("readers.faux")
	assert.True(t, ok)
	assert.Equal(t, KindReader, k)
	assert.Equal(t, "readers", k.String())

	k, ok = KindOf("filters.range")
	assert.True(t, ok)
	assert.Equal(t, KindFilter, k)

	_, ok = KindOf("faux")
	assert.False(t, ok)
	_, ok = KindOf("sinks.null")
	assert.False(t, ok)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()

	assert.Contains(t, r.Types(), TypeFauxReader)
	assert.Contains(t, r.Types(), TypeSQLiteWriter)
	assert.True(t, r.Has(TypeMergeFilter))

	_, err := r.New("filters.nope")
	assert.ErrorIs(t, err, ErrUnknownStage)

	err = r.Register(TypeNullWriter, func() Stage { return NewNullWriter() })
	assert.Error(t, err)
	err = r.Register("nokind", func() Stage { return NewNullWriter() })
	assert.Error(t, err)

	t.Run("Infer", func(t *testing.T) {
		typ, ok := r.InferReader("data/points.CSV")
		assert.True(t, ok)
		assert.Equal(t, TypeTextReader, typ)

		typ, ok = r.InferWriter("out.ptf")
		assert.True(t, ok)
		assert.Equal(t, TypePTFWriter, typ)

		typ, ok = r.InferWriter("out.sqlite")
		assert.True(t, ok)
		assert.Equal(t, TypeSQLiteWriter, typ)

		_, ok = r.InferReader("out.sqlite")
		assert.False(t, ok)
		_, ok = r.InferReader("noext")
		assert.False(t, ok)
	})

	t.Run("Custom", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register("readers.custom", func() Stage { return NewFauxReader() }))
		require.NoError(t, r.RegisterExtension(".xyz", "readers.custom"))
		typ, ok := r.InferReader("a.xyz")
		assert.True(t, ok)
		assert.Equal(t, "readers.custom", typ)
		assert.Error(t, r.RegisterExtension(".abc", "readers.missing"))
	})
}

func TestStreamable(t *testing.T) {
	r := DefaultRegistry()
	for typ, want := range map[string]bool{
		TypeFauxReader:       true,
		TypeTextReader:       true,
		TypePTFReader:        true,
		TypeArrowReader:      false,
		TypeRangeFilter:      true,
		TypeAssignFilter:     true,
		TypeHeadFilter:       true,
		TypeDecimationFilter: true,
		TypeStatsFilter:      true,
		TypeMergeFilter:      false,
		TypeNullWriter:       true,
		TypeTextWriter:       true,
		TypePTFWriter:        true,
		TypeArrowWriter:      false,
		TypeSQLiteWriter:     false,
	} {
		s, err := r.New(typ)
		require.NoError(t, err)
		assert.Equal(t, want, Streamable(s), typ)
		assert.Equal(t, typ, s.Type())
	}
}

func TestContext(t *testing.T) {
	sc, store := newTestContext(t)
	assert.Equal(t, 1, sc.NextID())
	tagged := sc.WithTag("readers_faux1")
	assert.Equal(t, 2, tagged.NextID())
	assert.Equal(t, 3, sc.NextID())

	ctx := context.Background()
	w, err := sc.CreateFile(ctx, "dir/a.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	names, err := store.List(ctx, "dir/")
	require.NoError(t, err)
	assert.Equal(t, []string{"dir/a.bin"}, names)

	data, err := sc.ReadFile(ctx, "dir/a.bin")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = sc.ReadFile(ctx, "missing")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	_, seekable := w.(io.Seeker)
	assert.False(t, seekable)

	w, err = sc.CreateFile(ctx, "dir/b.bin")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())
	_, err = sc.ReadFile(ctx, "dir/b.bin")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestContextLocalFileSeekable(t *testing.T) {
	dir := t.TempDir()
	sc := NewContext(WithStore(blobstore.NewLocalStore(dir)))
	ctx := context.Background()

	w, err := sc.CreateFile(ctx, "a.bin")
	require.NoError(t, err)
	s, ok := w.(io.Seeker)
	require.True(t, ok)
	_, err = w.Write([]byte("....tail"))
	require.NoError(t, err)
	_, err = s.Seek(0, io.SeekStart)
	require.NoError(t, err)
	_, err = w.Write([]byte("head"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := sc.ReadFile(ctx, "a.bin")
	require.NoError(t, err)
	assert.Equal(t, "headtail", string(data))
}

func TestBaseOptions(t *testing.T) {
	s := configured(t, TypeFauxReader, NewOptions().
		Add("count", "2").
		Add("spatialreference", "EPSG:4326").
		Add("user_data", `{"a":1}`))

	sc, _ := newTestContext(t)
	out, err := s.Run(context.Background(), sc, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Contains(t, out[0].WKT(), "WGS 84")
	assert.NotEmpty(t, out[0].PROJ4())

	ud, ok := s.Metadata().Get("user_data")
	require.True(t, ok)
	assert.Equal(t, `{"a":1}`, ud.StringValue())

	bad := NewFauxReader()
	assert.ErrorIs(t, bad.Configure(NewOptions().Add("spatialreference", "nonsense")), ErrInvalidOption)
}

func viewXs(t *testing.T, v *pointview.View) []float64 {
	t.Helper()
	xs := make([]float64, 0, v.Len())
	for idx := range v.PointIDs() {
		x, err := v.FieldFloat64(dimension.X, idx)
		require.NoError(t, err)
		xs = append(xs, x)
	}
	return xs
}
