package ellipsoid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEllipsoid_Constants(t *testing.T) {
	assert.Equal(t, 6378137.0, WGS84.A())
	assert.Equal(t, 6356752.3142452, WGS84.B())
	assert.Equal(t, 0.0033528106647475, WGS84.Flattening())
	assert.Equal(t, 6371008.7714151, WGS84.R())
	assert.Equal(t, 298.257223563, WGS84.InverseFlattening())

	for _, e := range All() {
		// flattening must agree with the axes
		assert.InDelta(t, (e.A()-e.B())/e.A(), e.Flattening(), 1e-12, e.String())
		assert.InDelta(t, 1/e.InverseFlattening(), e.Flattening(), 1e-12, e.String())
		assert.Less(t, e.B(), e.R(), e.String())
		assert.Less(t, e.R(), e.A(), e.String())
	}
}

func TestEllipsoid_Parse(t *testing.T) {
	tests := []struct {
		in   string
		want Ellipsoid
	}{
		{"WGS_84", WGS84},
		{"wgs84", WGS84},
		{"wgs-72", WGS72},
		{" GRS_80 ", GRS80},
		{"WGS_66", WGS66},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Parse("clarke1866")
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestEllipsoid_FromName(t *testing.T) {
	assert.Equal(t, GRS80, FromName("GRS_80", WGS84))
	assert.Equal(t, WGS84, FromName("", WGS84))
	assert.Equal(t, WGS72, FromName("nope", WGS72))
}

func TestEllipsoid_Text(t *testing.T) {
	text, err := WGS72.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "WGS_72", string(text))

	var e Ellipsoid
	require.NoError(t, e.UnmarshalText([]byte("grs80")))
	assert.Equal(t, GRS80, e)

	assert.Error(t, e.UnmarshalText([]byte("mars")))
	assert.False(t, Ellipsoid(0).Valid())
	assert.Equal(t, "Ellipsoid(0)", Ellipsoid(0).String())
	assert.Panics(t, func() { Ellipsoid(42).A() })
}
