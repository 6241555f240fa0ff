package srs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		sr, err := Parse("  ")
		require.NoError(t, err)
		assert.True(t, sr.IsEmpty())
	})

	t.Run("EPSG", func(t *testing.T) {
		sr, err := Parse("EPSG:4326")
		require.NoError(t, err)
		assert.Contains(t, sr.WKT, "WGS 84")
		assert.Equal(t, "+proj=longlat +datum=WGS84 +no_defs", sr.PROJ4)

		code, ok := sr.EPSG()
		require.True(t, ok)
		assert.Equal(t, 4326, code)
	})

	t.Run("EPSGLowercase", func(t *testing.T) {
		sr, err := Parse("epsg:32610")
		require.NoError(t, err)
		assert.Contains(t, sr.PROJ4, "+zone=10")
	})

	t.Run("UnknownEPSG", func(t *testing.T) {
		_, err := Parse("EPSG:1")
		assert.ErrorIs(t, err, ErrInvalid)
		_, err = Parse("EPSG:abc")
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("PROJ4", func(t *testing.T) {
		sr, err := Parse("+proj=utm +zone=33 +datum=WGS84")
		require.NoError(t, err)
		assert.Empty(t, sr.WKT)
		assert.Equal(t, "+proj=utm +zone=33 +datum=WGS84", sr.PROJ4)
		assert.Equal(t, sr.PROJ4, sr.String())

		_, err = Parse("+zone=33")
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("WKTWithKnownAuthority", func(t *testing.T) {
		wkt, err := FromEPSG(26910)
		require.NoError(t, err)

		sr, err := Parse(wkt.WKT)
		require.NoError(t, err)
		assert.Equal(t, wkt, sr)
	})

	t.Run("WKTWithoutAuthority", func(t *testing.T) {
		sr, err := Parse(`LOCAL_CS["site grid",UNIT["metre",1]]`)
		require.NoError(t, err)
		assert.Empty(t, sr.PROJ4)
		_, ok := sr.EPSG()
		assert.False(t, ok)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := Parse("not a coordinate system")
		assert.ErrorIs(t, err, ErrInvalid)
		_, err = Parse(`GEOGCS["broken"`)
		assert.ErrorIs(t, err, ErrInvalid)
	})
}
