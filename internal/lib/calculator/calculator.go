package calculator

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dpup/geocalc/internal/lib/ellipsoid"
	"github.com/dpup/geocalc/internal/lib/geo"
)

const (
	// DefaultAllowed is the distance in meters under which two locations are the same
	DefaultAllowed = 1.5
	// DefaultMaxIterations caps the Vincenty inverse and direct iterations
	DefaultMaxIterations = 200
	// DefaultEpsilon is the convergence threshold of the Vincenty iterations, in radians
	DefaultEpsilon = 1e-12
)

var (
	// ErrNotConverging is returned when a Vincenty iteration exhausts its cap
	ErrNotConverging = errors.New("vincenty formula did not converge")
	// ErrUnknownKind is returned by ParseKind for unrecognized solver names
	ErrUnknownKind = errors.New("unknown calculator kind")
)

// Calculator is the geodesy engine the rest of the system programs against.
// Implementations are immutable and safe for concurrent use.
type Calculator interface {
	geo.Measurer

	Kind() Kind
	Ellipsoid() ellipsoid.Ellipsoid
	// Allowed is the tolerance in meters used for approximate equality
	Allowed() float64
	MaxIterations() int

	InitialBearing(start, end geo.Location) (float64, error)
	FinalBearing(start, end geo.Location) (float64, error)
	FullBearing(start, end geo.Location) (geo.Bearing, error)

	IsAllowed(distance float64) bool
	SameLocation(a, b geo.Location) (bool, error)

	PerpendicularDistance(lineStart, lineEnd, p geo.Location) float64
	DistanceToPolyline(p geo.Location, line *geo.Polyline) (float64, error)

	Simplify(s geo.Shape, opts ...SimplifyOption) (geo.Shape, error)
	Intersects(a, b geo.Shape) (bool, error)
	Contains(polygon *geo.Polygon, loc geo.Location) bool
	Area(polygon *geo.Polygon) float64

	// Build returns a new calculator of the same kind with the options applied
	// over this one's settings. The receiver is never modified.
	Build(opts ...Option) Calculator
}

// Kind selects the solver strategy
type Kind int

const (
	Spherical Kind = iota
	Ellipsoidal
)

func (k Kind) String() string {
	switch k {
	case Spherical:
		return "spherical"
	case Ellipsoidal:
		return "ellipsoidal"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind maps a solver name to its Kind. "haversine" and "vincenty" are accepted
// as aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spherical", "sphere", "haversine":
		return Spherical, nil
	case "ellipsoidal", "ellipsoid", "vincenty":
		return Ellipsoidal, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// New creates a calculator of the given kind
func New(kind Kind, opts ...Option) (Calculator, error) {
	switch kind {
	case Spherical:
		return NewSpherical(opts...), nil
	case Ellipsoidal:
		return NewEllipsoidal(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

type settings struct {
	ellipsoid     ellipsoid.Ellipsoid
	allowed       float64
	maxIterations int
	epsilon       float64
}

func defaultSettings() settings {
	return settings{
		ellipsoid:     ellipsoid.WGS84,
		allowed:       DefaultAllowed,
		maxIterations: DefaultMaxIterations,
		epsilon:       DefaultEpsilon,
	}
}

func (s settings) with(opts []Option) settings {
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures a calculator
type Option func(*settings)

// WithEllipsoid selects the reference ellipsoid; invalid values are ignored
func WithEllipsoid(e ellipsoid.Ellipsoid) Option {
	return func(s *settings) {
		if e.Valid() {
			s.ellipsoid = e
		}
	}
}

// WithAllowed sets the equality tolerance in meters. The sign is dropped.
func WithAllowed(meters float64) Option {
	return func(s *settings) {
		s.allowed = math.Abs(meters)
	}
}

// WithMaxIterations sets the Vincenty iteration cap; values below 1 are ignored
func WithMaxIterations(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

// WithEpsilon sets the Vincenty convergence threshold; non-positive values are ignored
func WithEpsilon(eps float64) Option {
	return func(s *settings) {
		if eps > 0 {
			s.epsilon = eps
		}
	}
}

// bearingSolver is the strategy specific part the shared algorithms need
type bearingSolver interface {
	Distance(a, b geo.Location) (float64, error)
	InitialBearing(start, end geo.Location) (float64, error)
}

// base holds the settings and the strategy independent operations
type base struct {
	settings
	solver bearingSolver
}

func (b *base) Ellipsoid() ellipsoid.Ellipsoid { return b.ellipsoid }
func (b *base) Allowed() float64               { return b.allowed }
func (b *base) MaxIterations() int             { return b.maxIterations }

// IsAllowed reports whether distance is within the tolerance
func (b *base) IsAllowed(distance float64) bool {
	return distance <= b.allowed
}

// SameLocation reports whether a and b are within the tolerance of each other
func (b *base) SameLocation(x, y geo.Location) (bool, error) {
	if x.Equal(y) {
		return true, nil
	}
	d, err := b.solver.Distance(x, y)
	if err != nil {
		return false, err
	}
	return b.IsAllowed(d), nil
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
