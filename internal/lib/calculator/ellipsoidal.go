package calculator

import (
	"fmt"
	"math"

	"github.com/dpup/geocalc/internal/lib/geo"
)

// EllipsoidalCalculator solves geodesics on the reference ellipsoid with
// Vincenty's inverse and direct formulae.
type EllipsoidalCalculator struct {
	base
}

var _ Calculator = (*EllipsoidalCalculator)(nil)

// NewEllipsoidal creates a Vincenty calculator on WGS84 unless overridden
func NewEllipsoidal(opts ...Option) *EllipsoidalCalculator {
	return newEllipsoidal(defaultSettings().with(opts))
}

func newEllipsoidal(s settings) *EllipsoidalCalculator {
	c := &EllipsoidalCalculator{base: base{settings: s}}
	c.solver = c
	return c
}

func (c *EllipsoidalCalculator) Kind() Kind { return Ellipsoidal }

// Build returns an ellipsoidal calculator with the options applied
func (c *EllipsoidalCalculator) Build(opts ...Option) Calculator {
	return newEllipsoidal(c.settings.with(opts))
}

// Geodesic is the solution of the inverse problem
type Geodesic struct {
	Distance float64
	// Initial is the forward azimuth at the start, Final the forward azimuth at the end
	Initial float64
	Final   float64
}

// Bearing returns the azimuths as a geo.Bearing
func (g Geodesic) Bearing() geo.Bearing {
	return geo.NewBearing(g.Initial, g.Final)
}

// Distance returns the geodesic distance in meters
func (c *EllipsoidalCalculator) Distance(a, b geo.Location) (float64, error) {
	g, err := c.Inverse(a, b)
	if err != nil {
		return 0, err
	}
	return g.Distance, nil
}

// InitialBearing returns the forward azimuth at start
func (c *EllipsoidalCalculator) InitialBearing(start, end geo.Location) (float64, error) {
	g, err := c.Inverse(start, end)
	if err != nil {
		return 0, err
	}
	return g.Initial, nil
}

// FinalBearing returns the forward azimuth at end, the direction of travel on
// arrival. For Flinders Peak to Buninyong that is 307.17363°; the reverse azimuth
// 127.17363° is Bearing.Back of the result.
func (c *EllipsoidalCalculator) FinalBearing(start, end geo.Location) (float64, error) {
	g, err := c.Inverse(start, end)
	if err != nil {
		return 0, err
	}
	return g.Final, nil
}

// FullBearing returns both azimuths from a single inverse solution
func (c *EllipsoidalCalculator) FullBearing(start, end geo.Location) (geo.Bearing, error) {
	g, err := c.Inverse(start, end)
	if err != nil {
		return geo.Bearing{}, err
	}
	return g.Bearing(), nil
}

// Destination solves the direct problem and returns the end point
func (c *EllipsoidalCalculator) Destination(origin geo.Location, bearing, distance float64) (geo.Location, error) {
	end, _, err := c.Direct(origin, bearing, distance)
	return end, err
}

// Inverse solves the inverse problem between two locations. Coincident points give
// a zero distance with both azimuths 0.
func (c *EllipsoidalCalculator) Inverse(start, end geo.Location) (Geodesic, error) {
	f := c.ellipsoid.Flattening()
	b := c.ellipsoid.B()

	L := radians(end.Longitude() - start.Longitude())
	sinU1, cosU1 := reducedLatitude(radians(start.Latitude()), f)
	sinU2, cosU2 := reducedLatitude(radians(end.Latitude()), f)

	lambda := L
	var t sigmaTerms
	converged := false
	for i := 0; i < c.maxIterations; i++ {
		t = newSigmaTerms(lambda, sinU1, cosU1, sinU2, cosU2)
		if t.sinSigma == 0 {
			return Geodesic{}, nil
		}

		C := coefficientC(f, t.cosSqAlpha)
		previous := lambda
		lambda = L + (1-C)*f*t.sinAlpha*
			(t.sigma+C*t.sinSigma*(t.cos2SigmaM+C*t.cosSigma*(-1+2*t.cos2SigmaM*t.cos2SigmaM)))

		if math.Abs(lambda-previous) <= c.epsilon {
			converged = true
			break
		}
	}
	if !converged {
		return Geodesic{}, fmt.Errorf("%w: inverse problem %s -> %s after %d iterations",
			ErrNotConverging, start, end, c.maxIterations)
	}

	// the loop's terms belong to λ before its last update; short lines need the
	// converged one
	t = newSigmaTerms(lambda, sinU1, cosU1, sinU2, cosU2)
	if t.sinSigma == 0 {
		return Geodesic{}, nil
	}
	sinSigma, cosSigma, sigma := t.sinSigma, t.cosSigma, t.sigma
	cosSqAlpha, cos2SigmaM := t.cosSqAlpha, t.cos2SigmaM
	sinLambda, cosLambda := t.sinLambda, t.cosLambda

	k := seriesK(uSquared(c.ellipsoid.A(), b, cosSqAlpha))
	A := seriesA(k)
	B := seriesB(k)

	distance := b * A * (sigma - deltaSigma(B, sinSigma, cosSigma, cos2SigmaM))

	alpha1 := math.Atan2(cosU2*sinLambda, cosU1*sinU2-sinU1*cosU2*cosLambda)
	alpha2 := math.Atan2(cosU1*sinLambda, -sinU1*cosU2+cosU1*sinU2*cosLambda)

	return Geodesic{
		Distance: distance,
		Initial:  geo.NormalizeDegrees(degrees(alpha1)),
		Final:    geo.NormalizeDegrees(degrees(alpha2)),
	}, nil
}

// Direct solves the direct problem: the location reached from origin after
// distance meters on the initial bearing, and the forward azimuth there.
func (c *EllipsoidalCalculator) Direct(origin geo.Location, bearing, distance float64) (geo.Location, float64, error) {
	if distance == 0 {
		return origin, geo.NormalizeDegrees(bearing), nil
	}

	f := c.ellipsoid.Flattening()
	b := c.ellipsoid.B()

	lambda1 := radians(origin.Longitude())
	sinAlpha1, cosAlpha1 := math.Sincos(radians(bearing))

	sinU1, cosU1 := reducedLatitude(radians(origin.Latitude()), f)
	sigma1 := math.Atan2(sinU1/cosU1, cosAlpha1)
	sinAlpha := cosU1 * sinAlpha1
	cosSqAlpha := 1 - sinAlpha*sinAlpha

	k := seriesK(uSquared(c.ellipsoid.A(), b, cosSqAlpha))
	A := seriesA(k)
	B := seriesB(k)

	first := distance / (b * A)
	sigma := first

	var (
		sinSigma, cosSigma float64
		cos2SigmaM         float64
		converged          bool
	)
	for i := 0; i < c.maxIterations; i++ {
		cos2SigmaM = math.Cos(2*sigma1 + sigma)
		sinSigma, cosSigma = math.Sincos(sigma)
		previous := sigma
		sigma = first + deltaSigma(B, sinSigma, cosSigma, cos2SigmaM)

		if math.Abs(sigma-previous) <= c.epsilon {
			converged = true
			break
		}
	}
	if !converged {
		return geo.Location{}, 0, fmt.Errorf("%w: direct problem from %s after %d iterations",
			ErrNotConverging, origin, c.maxIterations)
	}

	sinSigma, cosSigma = math.Sincos(sigma)
	cos2SigmaM = math.Cos(2*sigma1 + sigma)

	tmp := sinU1*sinSigma - cosU1*cosSigma*cosAlpha1
	phi2 := math.Atan2(
		sinU1*cosSigma+cosU1*sinSigma*cosAlpha1,
		(1-f)*math.Sqrt(sinAlpha*sinAlpha+tmp*tmp),
	)
	lambda := math.Atan2(sinSigma*sinAlpha1, cosU1*cosSigma-sinU1*sinSigma*cosAlpha1)

	C := coefficientC(f, cosSqAlpha)
	L := lambda - (1-C)*f*sinAlpha*
		(sigma+C*sinSigma*(cos2SigmaM+C*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

	lambda2 := math.Mod(lambda1+L+3*math.Pi, 2*math.Pi) - math.Pi
	alpha2 := math.Atan2(sinAlpha, -tmp)

	return geo.NewLocation(degrees(phi2), degrees(lambda2)), geo.NormalizeDegrees(degrees(alpha2)), nil
}

// sigmaTerms are the angular quantities of one inverse iteration at a given λ
type sigmaTerms struct {
	sinLambda, cosLambda float64
	sinSigma, cosSigma   float64
	sigma                float64
	sinAlpha, cosSqAlpha float64
	cos2SigmaM           float64
}

func newSigmaTerms(lambda, sinU1, cosU1, sinU2, cosU2 float64) sigmaTerms {
	var t sigmaTerms
	t.sinLambda, t.cosLambda = math.Sincos(lambda)
	sinSqSigma := (cosU2*t.sinLambda)*(cosU2*t.sinLambda) +
		(cosU1*sinU2-sinU1*cosU2*t.cosLambda)*(cosU1*sinU2-sinU1*cosU2*t.cosLambda)
	t.sinSigma = math.Sqrt(sinSqSigma)
	if t.sinSigma == 0 {
		return t
	}

	t.cosSigma = sinU1*sinU2 + cosU1*cosU2*t.cosLambda
	t.sigma = math.Atan2(t.sinSigma, t.cosSigma)
	t.sinAlpha = cosU1 * cosU2 * t.sinLambda / t.sinSigma
	t.cosSqAlpha = 1 - t.sinAlpha*t.sinAlpha

	// equatorial line
	if t.cosSqAlpha != 0 {
		t.cos2SigmaM = t.cosSigma - 2*sinU1*sinU2/t.cosSqAlpha
	}
	return t
}

// reducedLatitude returns sin and cos of U where tan U = (1-f) tan phi
func reducedLatitude(phi, f float64) (float64, float64) {
	tanU := (1 - f) * math.Tan(phi)
	cosU := 1 / math.Sqrt(1+tanU*tanU)
	return tanU * cosU, cosU
}

func uSquared(a, b, cosSqAlpha float64) float64 {
	return cosSqAlpha * (a*a - b*b) / (b * b)
}

// seriesK is Vincenty's k1 = (sqrt(1+u²)-1)/(sqrt(1+u²)+1)
func seriesK(uSq float64) float64 {
	s := math.Sqrt(1 + uSq)
	return (s - 1) / (s + 1)
}

func seriesA(k float64) float64 {
	return (1 + k*k/4) / (1 - k)
}

func seriesB(k float64) float64 {
	return k * (1 - 3*k*k/8)
}

func coefficientC(f, cosSqAlpha float64) float64 {
	return f / 16 * cosSqAlpha * (4 + f*(4-3*cosSqAlpha))
}

func deltaSigma(B, sinSigma, cosSigma, cos2SigmaM float64) float64 {
	return B * sinSigma * (cos2SigmaM + B/4*
		(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
			B/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))
}
