package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/geocalc/internal/lib/ellipsoid"
	"github.com/dpup/geocalc/internal/lib/geo"
)

// Flinders Peak to Buninyong, the classic Vincenty reference geodesic
var (
	flindersPeak = geo.NewLocation(-(37 + 57.0/60 + 3.72030/3600), 144+25.0/60+29.52440/3600)
	buninyong    = geo.NewLocation(-(37 + 39.0/60 + 10.15610/3600), 143+55.0/60+35.38390/3600)
)

func TestEllipsoidal_ReferenceVector(t *testing.T) {
	c := NewEllipsoidal()

	g, err := c.Inverse(flindersPeak, buninyong)
	require.NoError(t, err)
	assert.InDelta(t, 54972.271, g.Distance, 1e-3)
	assert.InDelta(t, 306.86816, g.Initial, 1e-5)
	assert.InDelta(t, 307.17363, g.Final, 1e-5)

	bearing, err := c.FullBearing(flindersPeak, buninyong)
	require.NoError(t, err)
	back, ok := bearing.Back()
	require.True(t, ok)
	assert.InDelta(t, 127.17363, back, 1e-5, "reverse azimuth at the end point")

	final, err := c.FinalBearing(flindersPeak, buninyong)
	require.NoError(t, err)
	assert.InDelta(t, 307.17363, final, 1e-5)

	initial, err := c.InitialBearing(flindersPeak, buninyong)
	require.NoError(t, err)
	assert.InDelta(t, 306.86816, initial, 1e-5)

	// the same geodesic from coordinates rounded to six decimals
	d, err := c.Distance(geo.NewLocation(-37.951033, 144.424868), geo.NewLocation(-37.652818, 143.926495))
	require.NoError(t, err)
	assert.InDelta(t, 54972.271, d, 0.5)
}

func TestEllipsoidal_Equatorial(t *testing.T) {
	c := NewEllipsoidal()
	g, err := c.Inverse(geo.NewLocation(0, 0), geo.NewLocation(0, 1))
	require.NoError(t, err)
	assert.InDelta(t, 111319.49, g.Distance, 0.01)
	assert.InDelta(t, 90, g.Initial, 1e-9)
	assert.InDelta(t, 90, g.Final, 1e-9)
}

func TestEllipsoidal_Coincident(t *testing.T) {
	c := NewEllipsoidal()
	g, err := c.Inverse(flindersPeak, flindersPeak)
	require.NoError(t, err)
	assert.Equal(t, Geodesic{}, g)

	bearing := g.Bearing()
	initial, ok := bearing.Initial()
	require.True(t, ok)
	assert.Equal(t, 0.0, initial)
}

func TestEllipsoidal_Symmetry(t *testing.T) {
	c := NewEllipsoidal()
	for _, pair := range samplePairs {
		ab, err := c.Distance(pair[0], pair[1])
		require.NoError(t, err)
		ba, err := c.Distance(pair[1], pair[0])
		require.NoError(t, err)
		assert.InDelta(t, ab, ba, 1e-6, "symmetry %s %s", pair[0], pair[1])
	}
}

func TestEllipsoidal_NotConverging(t *testing.T) {
	c := NewEllipsoidal()

	// nearly antipodal points defeat the inverse iteration
	_, err := c.Distance(geo.NewLocation(0, 0), geo.NewLocation(0.5, 179.7))
	assert.ErrorIs(t, err, ErrNotConverging)

	_, err = c.FullBearing(geo.NewLocation(0, 0), geo.NewLocation(0.5, 179.7))
	assert.ErrorIs(t, err, ErrNotConverging)

	capped := c.Build(WithMaxIterations(1))
	_, err = capped.Distance(flindersPeak, buninyong)
	assert.ErrorIs(t, err, ErrNotConverging)
	_, err = capped.Destination(flindersPeak, 306.86816, 54972.271)
	assert.ErrorIs(t, err, ErrNotConverging)

	// the original calculator keeps its cap
	_, err = c.Distance(flindersPeak, buninyong)
	assert.NoError(t, err)

	// the spherical solver is the caller's fallback
	d, err := NewSpherical().Distance(geo.NewLocation(0, 0), geo.NewLocation(0.5, 179.7))
	require.NoError(t, err)
	assert.Greater(t, d, 19e6)
}

func TestEllipsoidal_Direct(t *testing.T) {
	c := NewEllipsoidal()

	end, final, err := c.Direct(flindersPeak, 306.86816, 54972.271)
	require.NoError(t, err)
	assert.InDelta(t, buninyong.Latitude(), end.Latitude(), 1e-6)
	assert.InDelta(t, buninyong.Longitude(), end.Longitude(), 1e-6)
	assert.InDelta(t, 307.17363, final, 1e-5)

	same, final, err := c.Direct(flindersPeak, 400, 0)
	require.NoError(t, err)
	assert.Equal(t, flindersPeak, same)
	assert.InDelta(t, 40, final, 1e-9)
}

func TestEllipsoidal_DestinationConsistency(t *testing.T) {
	for _, e := range ellipsoid.All() {
		c := NewEllipsoidal(WithEllipsoid(e))
		t.Run(e.String(), func(t *testing.T) {
			for _, origin := range []geo.Location{
				geo.NewLocation(0, 0),
				geo.NewLocation(10, 20),
				geo.NewLocation(-37.951033, 144.424868),
				geo.NewLocation(64.1, -21.9),
			} {
				for _, bearing := range []float64{0, 45, 90, 135, 200, 315} {
					for _, distance := range []float64{1, 10, 100, 54972.271, 1e6, 1e7} {
						dest, err := c.Destination(origin, bearing, distance)
						require.NoError(t, err)
						back, err := c.Distance(origin, dest)
						require.NoError(t, err)
						assert.InEpsilon(t, distance, back, 1e-6, "%s %v %v", origin, bearing, distance)
					}
				}
			}
		})
	}
}

func TestEllipsoidal_DiffersFromSpherical(t *testing.T) {
	e, err := NewEllipsoidal().Distance(flindersPeak, buninyong)
	require.NoError(t, err)
	s, err := NewSpherical().Distance(flindersPeak, buninyong)
	require.NoError(t, err)
	assert.NotEqual(t, e, s)
	assert.InEpsilon(t, e, s, 0.01)

	grs, err := NewEllipsoidal(WithEllipsoid(ellipsoid.GRS80)).Distance(flindersPeak, buninyong)
	require.NoError(t, err)
	assert.InDelta(t, e, grs, 1e-3)
}

func TestSeriesHelpers(t *testing.T) {
	assert.Equal(t, 0.0, seriesK(0))
	assert.Equal(t, 1.0, seriesA(0))
	assert.Equal(t, 0.0, seriesB(0))
	assert.Equal(t, 0.0, coefficientC(ellipsoid.WGS84.Flattening(), 0))
	assert.Equal(t, 0.0, deltaSigma(0, 0.5, 0.5, 0.5))

	k := seriesK(0.01)
	assert.InDelta(t, 0.0024876, k, 1e-7)
	assert.Greater(t, seriesA(k), 1.0)
}
