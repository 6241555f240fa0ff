package ptf_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/pointflow/dimension"
	"github.com/hupe1980/pointflow/layout"
	"github.com/hupe1980/pointflow/pointview"
	"github.com/hupe1980/pointflow/ptf"
	"github.com/hupe1980/pointflow/resource"
	"github.com/hupe1980/pointflow/srs"
	"github.com/hupe1980/pointflow/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gridView(t *testing.T, n int) *pointview.View {
	t.Helper()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = []float64{float64(i % 10), float64(i / 10), 1.5, float64(i % 7), 2, 0.25, -3}
	}
	return testutil.MustBuildView(testutil.LidarLayout(), rows)
}

func encode(t *testing.T, v *pointview.View, opts ...ptf.WriterOption) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := ptf.NewWriter(&buf, v.Layout(), opts...)
	require.NoError(t, err)
	require.NoError(t, w.WriteView(v))
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), ptf.ErrClosed)
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	v := gridView(t, 2500)
	ref, err := srs.FromEPSG(4326)
	require.NoError(t, err)

	for _, c := range []ptf.Compression{ptf.CompressionNone, ptf.CompressionLZ4, ptf.CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			data := encode(t, v, ptf.WithCompression(c), ptf.WithSRS(ref), ptf.WithBlockPoints(1000))
			if c != ptf.CompressionNone {
				assert.Less(t, len(data), len(v.Bytes()))
			}

			r, err := ptf.NewReader(bytes.NewReader(data))
			require.NoError(t, err)
			h := r.Header()
			assert.Equal(t, c, h.Compression)
			assert.Equal(t, uint64(2500), h.PointCount)
			assert.Equal(t, uint32(3), h.BlockCount)
			assert.True(t, r.Layout().Equal(v.Layout()))
			assert.Equal(t, ref, r.SRS())

			b, err := pointview.NewBuilder(r.Layout(), pointview.WithSRS(r.SRS()))
			require.NoError(t, err)
			n, err := r.ReadView(b)
			require.NoError(t, err)
			assert.Equal(t, 2500, n)

			got := b.Build()
			assert.Equal(t, v.Bytes(), got.Bytes())
			assert.Equal(t, ref.WKT, got.WKT())

			_, err = r.Next()
			assert.ErrorIs(t, err, io.EOF)
		})
	}
}

func TestEmptyFile(t *testing.T) {
	v := testutil.MustBuildView(testutil.XYZ(), nil)
	data := encode(t, v)
	assert.Len(t, data, ptf.HeaderSize+3*4+4)

	r, err := ptf.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriteViewConverts(t *testing.T) {
	v := gridView(t, 5)
	xyz := layout.MustNew(
		dimension.Type{ID: dimension.X, Encoding: dimension.Float},
		dimension.Type{ID: dimension.Z, Encoding: dimension.Signed16},
	)

	var buf bytes.Buffer
	w, err := ptf.NewWriter(&buf, xyz)
	require.NoError(t, err)
	require.NoError(t, w.WriteView(v))
	assert.Equal(t, uint64(0), w.Count())
	require.NoError(t, w.Close())
	assert.Equal(t, uint64(5), w.Count())

	r, err := ptf.NewReader(&buf)
	require.NoError(t, err)

	// Read back into the wider layout; missing dimensions stay zero.
	b, err := pointview.NewBuilder(testutil.XYZ())
	require.NoError(t, err)
	_, err = r.ReadView(b)
	require.NoError(t, err)
	got := b.Build()

	x, err := got.FieldFloat64(dimension.X, 3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, x)
	z, err := got.FieldFloat64(dimension.Z, 3)
	require.NoError(t, err)
	assert.Equal(t, 1.0, z) // 1.5 truncated by Signed16
	y, err := got.FieldFloat64(dimension.Y, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, y)

	missing := layout.MustNew(dimension.Type{ID: dimension.Red, Encoding: dimension.Unsigned16})
	w, err = ptf.NewWriter(io.Discard, missing)
	require.NoError(t, err)
	assert.ErrorIs(t, w.WriteView(v), layout.ErrDimensionNotInSchema)
}

func TestCorruption(t *testing.T) {
	data := encode(t, gridView(t, 100), ptf.WithCompression(ptf.CompressionLZ4))

	t.Run("Magic", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[0] = 'X'
		_, err := ptf.NewReader(bytes.NewReader(bad))
		assert.ErrorIs(t, err, ptf.ErrInvalidMagic)
	})

	t.Run("HeaderChecksum", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[24]++ // point count
		_, err := ptf.NewReader(bytes.NewReader(bad))
		assert.ErrorIs(t, err, ptf.ErrCorrupted)
	})

	t.Run("Payload", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[len(bad)-5] ^= 0xff
		r, err := ptf.NewReader(bytes.NewReader(bad))
		require.NoError(t, err)
		b, err := pointview.NewBuilder(r.Layout())
		require.NoError(t, err)
		_, err = r.ReadView(b)
		assert.ErrorIs(t, err, ptf.ErrCorrupted)
	})

	t.Run("Truncated", func(t *testing.T) {
		r, err := ptf.NewReader(bytes.NewReader(data[:len(data)-2]))
		require.NoError(t, err)
		b, err := pointview.NewBuilder(r.Layout())
		require.NoError(t, err)
		_, err = r.ReadView(b)
		assert.ErrorIs(t, err, ptf.ErrCorrupted)
	})
}

func TestWriteRecords(t *testing.T) {
	w, err := ptf.NewWriter(io.Discard, testutil.XYZ())
	require.NoError(t, err)
	assert.ErrorIs(t, w.WriteRecords(make([]byte, 23)), ptf.ErrRecordSize)
}

func TestParseCompression(t *testing.T) {
	for name, want := range map[string]ptf.Compression{"": ptf.CompressionNone, "LZ4": ptf.CompressionLZ4, "zstd": ptf.CompressionZstd} {
		got, err := ptf.ParseCompression(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ptf.ParseCompression("gzip")
	assert.Error(t, err)
}

func TestSeekableWriter(t *testing.T) {
	v := gridView(t, 2500)
	opts := []ptf.WriterOption{ptf.WithCompression(ptf.CompressionZstd), ptf.WithBlockPoints(1000)}
	want := encode(t, v, opts...)

	path := filepath.Join(t.TempDir(), "grid.ptf")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := ptf.NewWriter(f, v.Layout(), opts...)
	require.NoError(t, err)
	require.NoError(t, w.WriteView(v))
	assert.Zero(t, w.Buffered())
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	r, err := ptf.NewReaderSize(bytes.NewReader(got), int64(len(got)))
	require.NoError(t, err)
	assert.Equal(t, uint64(2500), r.Header().PointCount)
	assert.Equal(t, uint32(3), r.Header().BlockCount)
}

func TestWriterMemoryAccounting(t *testing.T) {
	v := gridView(t, 2500)

	t.Run("ReleasedOnClose", func(t *testing.T) {
		rc := resource.NewController(resource.Config{})
		var buf bytes.Buffer
		w, err := ptf.NewWriter(&buf, v.Layout(), ptf.WithBlockPoints(500), ptf.WithMemoryReserver(rc))
		require.NoError(t, err)
		require.NoError(t, w.WriteView(v))
		assert.Equal(t, int64(w.Buffered()), rc.MemoryUsage())
		assert.Positive(t, rc.MemoryUsage())
		require.NoError(t, w.Close())
		assert.Zero(t, rc.MemoryUsage())
	})

	t.Run("Limit", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 1024})
		w, err := ptf.NewWriter(io.Discard, v.Layout(), ptf.WithBlockPoints(500), ptf.WithMemoryReserver(rc))
		require.NoError(t, err)
		assert.ErrorIs(t, w.WriteView(v), resource.ErrMemoryLimit)
		w.Abort()
		assert.Zero(t, rc.MemoryUsage())
		assert.ErrorIs(t, w.Close(), ptf.ErrClosed)
	})
}

func TestDeclaredLengthsBounded(t *testing.T) {
	h := ptf.Header{
		Magic:       ptf.FormatMagic,
		Version:     ptf.FormatVersion,
		DimCount:    3,
		PointSize:   24,
		BlockPoints: 1,
		WKTLen:      1 << 31,
	}
	hdr, err := h.MarshalBinary()
	require.NoError(t, err)
	data := append(hdr, make([]byte, 32)...)

	_, err = ptf.NewReaderSize(bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, ptf.ErrCorrupted)

	valid := encode(t, gridView(t, 10))
	_, err = ptf.NewReaderSize(bytes.NewReader(valid), int64(len(valid)-1))
	require.NoError(t, err)
	_, err = ptf.NewReaderSize(bytes.NewReader(valid), ptf.HeaderSize+4)
	assert.ErrorIs(t, err, ptf.ErrCorrupted)
}
