package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Memory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.ReserveMemory(50))
	assert.Equal(t, int64(50), c.MemoryUsage())

	require.NoError(t, c.ReserveMemory(40))
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Acquire 20 (should fail - limit exceeded)
	assert.ErrorIs(t, c.ReserveMemory(20), ErrMemoryLimit)
	assert.Equal(t, int64(90), c.MemoryUsage())

	c.ReleaseMemory(50)
	assert.Equal(t, int64(40), c.MemoryUsage())

	require.NoError(t, c.ReserveMemory(20))
	assert.Equal(t, int64(60), c.MemoryUsage())
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 0})

	require.NoError(t, c.ReserveMemory(1000))
	assert.Equal(t, int64(1000), c.MemoryUsage())

	c.ReleaseMemory(500)
	assert.Equal(t, int64(500), c.MemoryUsage())
}

func TestController_MemoryBlocking(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	require.NoError(t, c.AcquireMemory(context.Background(), 100))
	assert.Equal(t, int64(100), c.MemoryUsage())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireMemory(ctx, 1), context.DeadlineExceeded)

	assert.False(t, c.TryAcquireMemory(1))

	c.ReleaseMemory(10)
	assert.Equal(t, int64(90), c.MemoryUsage())

	assert.True(t, c.TryAcquireMemory(5))
	assert.Equal(t, int64(95), c.MemoryUsage())

	// Larger than the whole limit can never succeed.
	assert.ErrorIs(t, c.AcquireMemory(context.Background(), 101), ErrMemoryLimit)
}

func TestController_Concurrency(t *testing.T) {
	c := NewController(Config{MaxBackgroundWorkers: 2})

	require.NoError(t, c.AcquireBackground(t.Context()))
	require.NoError(t, c.AcquireBackground(t.Context()))

	assert.False(t, c.TryAcquireBackground())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireBackground(ctx))

	c.ReleaseBackground()
	assert.True(t, c.TryAcquireBackground())
}

func TestController_DefaultWorkers(t *testing.T) {
	c := NewController(Config{})
	assert.Equal(t, int64(1), c.Config().MaxBackgroundWorkers)
}

func TestController_IO(t *testing.T) {
	ctx := context.Background()

	c := NewController(Config{IOLimitBytesPerSec: 1000})
	assert.NoError(t, c.AcquireIO(ctx, 100))
	assert.True(t, c.TryAcquireIO(100))

	// Above burst is split rather than rejected.
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, c.AcquireIO(cctx, 5000))

	c2 := NewController(Config{})
	assert.NoError(t, c2.AcquireIO(ctx, 1000000))
	assert.True(t, c2.TryAcquireIO(1000000))
}

func TestController_InternalChecks(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 10})
	assert.NoError(t, c.AcquireMemory(context.Background(), -1))
	assert.True(t, c.TryAcquireMemory(-1))
	c.ReleaseMemory(-1)
	assert.Equal(t, int64(0), c.MemoryUsage())
	assert.Equal(t, int64(10), c.MemoryLimit())
}

func TestController_NilSafe(t *testing.T) {
	var c *Controller

	assert.NoError(t, c.ReserveMemory(100))
	assert.NoError(t, c.AcquireMemory(context.Background(), 100))
	assert.True(t, c.TryAcquireMemory(100))
	c.ReleaseMemory(100)
	assert.Equal(t, int64(0), c.MemoryUsage())
	assert.Equal(t, int64(0), c.MemoryLimit())
	assert.Equal(t, Config{}, c.Config())

	assert.NoError(t, c.AcquireBackground(context.Background()))
	assert.True(t, c.TryAcquireBackground())
	c.ReleaseBackground()

	assert.NoError(t, c.AcquireIO(context.Background(), 100))
	assert.True(t, c.TryAcquireIO(100))
}
