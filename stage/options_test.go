package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	o := NewOptions().
		Add("filename", "a.txt").
		Add("limits", "Z[0:10]").
		Add("limits", "Classification[2:2]").
		Add("count", "42").
		Add("ratio", "0.5").
		Add("write_header", "false")

	assert.Equal(t, 6, o.Len())
	assert.Equal(t, []string{"filename", "limits", "count", "ratio", "write_header"}, o.Names())
	assert.True(t, o.Has("limits"))
	assert.False(t, o.Has("missing"))

	v, ok := o.Get("limits")
	require.True(t, ok)
	assert.Equal(t, "Classification[2:2]", v)
	assert.Equal(t, []string{"Z[0:10]", "Classification[2:2]"}, o.GetAll("limits"))

	n, err := o.Int("count", 0)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	f, err := o.Float("ratio", 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, f, 1e-12)

	b, err := o.Bool("write_header", true)
	require.NoError(t, err)
	assert.False(t, b)

	t.Run("Defaults", func(t *testing.T) {
		n, err := o.Int("missing", 7)
		require.NoError(t, err)
		assert.Equal(t, 7, n)
		assert.Equal(t, "x", o.String("missing", "x"))
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := o.Int("filename", 0)
		assert.ErrorIs(t, err, ErrInvalidOption)
		_, err = o.Bool("count", false)
		assert.ErrorIs(t, err, ErrInvalidOption)
	})

	t.Run("Clone", func(t *testing.T) {
		c := o.Clone()
		c.Add("extra", "1")
		assert.Equal(t, 6, o.Len())
		assert.Equal(t, 7, c.Len())
	})

	t.Run("Nil", func(t *testing.T) {
		var empty *Options
		assert.Equal(t, 0, empty.Len())
		assert.False(t, empty.Has("x"))
		assert.Nil(t, empty.GetAll("x"))
	})
}
