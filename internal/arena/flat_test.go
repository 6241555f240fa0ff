package arena

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type budget struct {
	limit, used int64
}

var errBudget = errors.New("over budget")

func (b *budget) ReserveMemory(n int64) error {
	if b.used+n > b.limit {
		return errBudget
	}
	b.used += n
	return nil
}

func (b *budget) ReleaseMemory(n int64) { b.used -= n }

func TestRecords(t *testing.T) {
	t.Run("AllocIsZeroed", func(t *testing.T) {
		a, err := NewRecords(4, 0)
		require.NoError(t, err)

		for i := 0; i < 100; i++ {
			idx, rec, err := a.Alloc()
			require.NoError(t, err)
			assert.Equal(t, i, idx)
			assert.Equal(t, []byte{0, 0, 0, 0}, rec)
			rec[0] = byte(i)
		}
		assert.Equal(t, 100, a.Len())
		assert.Len(t, a.Bytes(), 400)
		assert.Equal(t, byte(42), a.Record(42)[0])
	})

	t.Run("RecordsDoNotOverlap", func(t *testing.T) {
		a, err := NewRecords(2, 2)
		require.NoError(t, err)
		_, r0, _ := a.Alloc()
		_, r1, _ := a.Alloc()
		r0 = append(r0, 9) // capacity-limited slice must not clobber r1
		assert.Equal(t, []byte{0, 0}, r1)
		assert.Len(t, r0, 3)
	})

	t.Run("ZeroSizeRecords", func(t *testing.T) {
		a, err := NewRecords(0, 10)
		require.NoError(t, err)
		idx, rec, err := a.Alloc()
		require.NoError(t, err)
		assert.Equal(t, 0, idx)
		assert.Empty(t, rec)
		assert.Equal(t, 1, a.Len())
	})

	t.Run("InvalidSize", func(t *testing.T) {
		_, err := NewRecords(-1, 0)
		assert.ErrorIs(t, err, ErrInvalidRecordSize)
	})
}

func TestRecords_Reserver(t *testing.T) {
	b := &budget{limit: 64}
	a, err := NewRecords(8, 4, WithMemoryReserver(b))
	require.NoError(t, err)
	assert.Equal(t, int64(32), b.used)

	for i := 0; i < 4; i++ {
		_, _, err := a.Alloc()
		require.NoError(t, err)
	}

	// Growing to 16 records needs 96 more bytes.
	_, _, err = a.Alloc()
	assert.ErrorIs(t, err, errBudget)
	assert.Equal(t, 4, a.Len())

	a.Free()
	assert.Equal(t, int64(0), b.used)
}
