package s3

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pointflow"
	"github.com/hupe1980/pointflow/blobstore"
)

func TestIntegration_S3Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("Skipping S3 integration test: S3_BUCKET not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("test-pointflow-%d/", time.Now().UnixNano())
	store, err := New(ctx, bucket, WithPrefix(prefix))
	require.NoError(t, err)

	t.Run("MultipartBlob", func(t *testing.T) {
		name := "raw.ptf"
		data := make([]byte, 12<<20) // above the multipart threshold
		_, _ = rand.Read(data)

		w, err := store.Create(ctx, name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		r, err := store.Open(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), r.Size())

		buf := make([]byte, 100)
		_, err = r.ReadAt(ctx, buf, 5<<20)
		require.NoError(t, err)
		assert.Equal(t, data[5<<20:5<<20+100], buf)
		require.NoError(t, r.Close())
		require.NoError(t, store.Delete(ctx, name))
	})

	t.Run("PipelineRoundTrip", func(t *testing.T) {
		write := pointflow.NewManager(pointflow.WithBlobStore(store))
		require.NoError(t, write.LoadFromText(`[
			{"type": "readers.faux", "count": 1000, "mode": "random", "seed": 3},
			{"type": "writers.ptf", "filename": "tiles/b.ptf", "compression": "lz4"}
		]`))
		_, err := write.Execute()
		require.NoError(t, err)
		require.NoError(t, write.Close())

		names, err := store.List(ctx, "tiles/")
		require.NoError(t, err)
		assert.Equal(t, []string{"tiles/b.ptf"}, names)

		read := pointflow.NewManager(pointflow.WithBlobStore(store))
		defer read.Close()
		require.NoError(t, read.LoadFromText(`["tiles/b.ptf"]`))
		n, err := read.Execute()
		require.NoError(t, err)
		assert.Equal(t, 1000, n)

		require.NoError(t, store.Delete(ctx, "tiles/b.ptf"))
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.Open(ctx, "nonexistent.ptf")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}
