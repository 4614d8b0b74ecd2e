package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/geocalc/internal/lib/ellipsoid"
	"github.com/dpup/geocalc/internal/lib/geo"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input string
		want  Kind
	}{
		{"spherical", Spherical},
		{"Haversine", Spherical},
		{" ellipsoidal ", Ellipsoidal},
		{"VINCENTY", Ellipsoidal},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseKind("flat")
	assert.ErrorIs(t, err, ErrUnknownKind)

	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("vincenty")))
	assert.Equal(t, Ellipsoidal, k)
	text, err := k.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "ellipsoidal", string(text))
	assert.Equal(t, "Kind(7)", Kind(7).String())
}

func TestNew(t *testing.T) {
	c, err := New(Spherical)
	require.NoError(t, err)
	assert.Equal(t, Spherical, c.Kind())

	c, err = New(Ellipsoidal, WithEllipsoid(ellipsoid.GRS80))
	require.NoError(t, err)
	assert.Equal(t, Ellipsoidal, c.Kind())
	assert.Equal(t, ellipsoid.GRS80, c.Ellipsoid())

	_, err = New(Kind(9))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDefaults(t *testing.T) {
	for _, c := range []Calculator{NewSpherical(), NewEllipsoidal()} {
		assert.Equal(t, ellipsoid.WGS84, c.Ellipsoid())
		assert.Equal(t, DefaultAllowed, c.Allowed())
		assert.Equal(t, DefaultMaxIterations, c.MaxIterations())
	}
}

func TestBuild_DoesNotMutate(t *testing.T) {
	original := NewEllipsoidal()
	derived := original.Build(WithEllipsoid(ellipsoid.WGS72), WithAllowed(-10), WithMaxIterations(50))

	assert.Equal(t, Ellipsoidal, derived.Kind())
	assert.Equal(t, ellipsoid.WGS72, derived.Ellipsoid())
	assert.Equal(t, 10.0, derived.Allowed(), "tolerance sign is dropped")
	assert.Equal(t, 50, derived.MaxIterations())

	assert.Equal(t, ellipsoid.WGS84, original.Ellipsoid())
	assert.Equal(t, DefaultAllowed, original.Allowed())
	assert.Equal(t, DefaultMaxIterations, original.MaxIterations())

	// partial overrides keep the rest of the derived settings
	again := derived.Build(WithAllowed(3))
	assert.Equal(t, ellipsoid.WGS72, again.Ellipsoid())
	assert.Equal(t, 3.0, again.Allowed())

	spherical := NewSpherical().Build(WithEllipsoid(ellipsoid.WGS66))
	assert.Equal(t, Spherical, spherical.Kind())
	assert.Equal(t, ellipsoid.WGS66, spherical.Ellipsoid())
}

func TestOptions_IgnoreInvalid(t *testing.T) {
	c := NewSpherical(WithEllipsoid(ellipsoid.Ellipsoid(99)), WithMaxIterations(0), WithEpsilon(-1))
	assert.Equal(t, ellipsoid.WGS84, c.Ellipsoid())
	assert.Equal(t, DefaultMaxIterations, c.MaxIterations())
	assert.Equal(t, DefaultEpsilon, c.epsilon)
}

func TestIsAllowedAndSameLocation(t *testing.T) {
	for _, c := range []Calculator{NewSpherical(), NewEllipsoidal()} {
		t.Run(c.Kind().String(), func(t *testing.T) {
			assert.True(t, c.IsAllowed(1.5))
			assert.False(t, c.IsAllowed(1.51))

			a := geo.NewLocation(52.2, 13.4)
			near := geo.NewLocation(52.200005, 13.4) // about 0.56 m north
			far := geo.NewLocation(52.21, 13.4)

			same, err := c.SameLocation(a, a)
			require.NoError(t, err)
			assert.True(t, same)

			same, err = c.SameLocation(a, near)
			require.NoError(t, err)
			assert.True(t, same)

			same, err = c.SameLocation(a, far)
			require.NoError(t, err)
			assert.False(t, same)

			strict := c.Build(WithAllowed(0.1))
			same, err = strict.SameLocation(a, near)
			require.NoError(t, err)
			assert.False(t, same)
		})
	}
}

func TestMeasurer(t *testing.T) {
	// a calculator serves the data model's derived values
	var m geo.Measurer = NewEllipsoidal()
	line := geo.NewLine(geo.NewLocation(0, 0), geo.NewLocation(0, 1))
	length, err := line.Length(m)
	require.NoError(t, err)
	assert.InDelta(t, 111319.49, length, 0.01)

	b, err := geo.BoundsFromCenter(geo.NewLocation(45, 7), 1000, m)
	require.NoError(t, err)
	assert.True(t, b.Contains(geo.NewLocation(45, 7)))
}
