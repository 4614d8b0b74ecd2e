package calculator

import (
	"math"

	"github.com/dpup/geocalc/internal/lib/geo"
)

// SphericalCalculator treats the earth as a sphere of the ellipsoid's mean radius.
// Its operations are closed form and never fail.
type SphericalCalculator struct {
	base
}

var _ Calculator = (*SphericalCalculator)(nil)

// NewSpherical creates a spherical calculator on WGS84 unless overridden
func NewSpherical(opts ...Option) *SphericalCalculator {
	return newSpherical(defaultSettings().with(opts))
}

func newSpherical(s settings) *SphericalCalculator {
	c := &SphericalCalculator{base: base{settings: s}}
	c.solver = c
	return c
}

func (c *SphericalCalculator) Kind() Kind { return Spherical }

// Build returns a spherical calculator with the options applied
func (c *SphericalCalculator) Build(opts ...Option) Calculator {
	return newSpherical(c.settings.with(opts))
}

// Distance returns the haversine distance in meters
func (c *SphericalCalculator) Distance(a, b geo.Location) (float64, error) {
	lat1 := radians(a.Latitude())
	lat2 := radians(b.Latitude())
	dLat := lat2 - lat1
	dLon := radians(b.Longitude() - a.Longitude())

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * c.ellipsoid.R() * math.Asin(math.Sqrt(math.Min(1, h))), nil
}

// InitialBearing returns the great-circle bearing at start, in [0, 360)
func (c *SphericalCalculator) InitialBearing(start, end geo.Location) (float64, error) {
	return sphericalBearing(start, end), nil
}

// FinalBearing returns the bearing on arrival at end, in [0, 360)
func (c *SphericalCalculator) FinalBearing(start, end geo.Location) (float64, error) {
	return geo.NormalizeDegrees(sphericalBearing(end, start) + 180), nil
}

// FullBearing returns both bearings
func (c *SphericalCalculator) FullBearing(start, end geo.Location) (geo.Bearing, error) {
	final, _ := c.FinalBearing(start, end)
	return geo.NewBearing(sphericalBearing(start, end), final), nil
}

// Destination projects origin along bearing (degrees) for distance meters
func (c *SphericalCalculator) Destination(origin geo.Location, bearing, distance float64) (geo.Location, error) {
	d := distance / c.ellipsoid.R()
	theta := radians(bearing)
	lat1 := radians(origin.Latitude())
	lon1 := radians(origin.Longitude())

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(
		math.Sin(theta)*math.Sin(d)*math.Cos(lat1),
		math.Cos(d)-math.Sin(lat1)*math.Sin(lat2),
	)

	return geo.NewLocation(degrees(lat2), degrees(lon2)), nil
}

func sphericalBearing(start, end geo.Location) float64 {
	lat1 := radians(start.Latitude())
	lat2 := radians(end.Latitude())
	dLon := radians(end.Longitude() - start.Longitude())

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	return geo.NormalizeDegrees(degrees(math.Atan2(y, x)))
}
