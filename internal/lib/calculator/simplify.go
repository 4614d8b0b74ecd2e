package calculator

import (
	"fmt"
	"math"

	"github.com/dpup/geocalc/internal/lib/geo"
)

type simplifyOptions struct {
	maxDistance    float64
	hasMaxDistance bool
	minAngle       float64
	hasMinAngle    bool
}

// SimplifyOption enables one simplification pass
type SimplifyOption func(*simplifyOptions)

// WithMaxDistance enables the Douglas-Peucker pass: points closer than meters to
// the chord of their segment are dropped.
func WithMaxDistance(meters float64) SimplifyOption {
	return func(o *simplifyOptions) {
		o.maxDistance, o.hasMaxDistance = meters, true
	}
}

// WithMinAngle enables the angular pass: interior points where the path turns by
// no more than degrees are dropped.
func WithMinAngle(degrees float64) SimplifyOption {
	return func(o *simplifyOptions) {
		o.minAngle, o.hasMinAngle = degrees, true
	}
}

// Simplify returns a new shape of the same kind with fewer points. The distance pass
// runs before the angle pass. The input is never modified; a polygon's exclusion
// rings are carried over as copies.
func (b *base) Simplify(s geo.Shape, opts ...SimplifyOption) (geo.Shape, error) {
	var o simplifyOptions
	for _, opt := range opts {
		opt(&o)
	}

	switch shape := s.(type) {
	case geo.Location:
		return shape, nil
	case *geo.Line:
		return shape.Clone(), nil
	case *geo.Polyline:
		points, err := b.simplifyPoints(shape.Locations(), o)
		if err != nil {
			return nil, err
		}
		return geo.NewPolyline(points...)
	case *geo.Polygon:
		points, err := b.simplifyPoints(shape.Locations(), o)
		if err != nil {
			return nil, err
		}
		simplified, err := geo.NewPolygon(points...)
		if err != nil {
			return nil, fmt.Errorf("simplified polygon: %w", err)
		}
		if hole := shape.Hole(); hole != nil {
			if err := simplified.SetHole(hole.Clone()); err != nil {
				return nil, err
			}
		}
		return simplified, nil
	default:
		return nil, fmt.Errorf("%w: cannot simplify %T", geo.ErrInvalidShape, s)
	}
}

func (b *base) simplifyPoints(points []geo.Location, o simplifyOptions) ([]geo.Location, error) {
	if o.hasMaxDistance {
		points = b.douglasPeucker(points, o.maxDistance)
	}
	if o.hasMinAngle {
		var err error
		if points, err = b.angleSimplify(points, o.minAngle); err != nil {
			return nil, err
		}
	}
	return points, nil
}

// douglasPeucker splits at the point farthest from the chord while that distance
// exceeds threshold. The endpoints always survive.
func (b *base) douglasPeucker(points []geo.Location, threshold float64) []geo.Location {
	n := len(points)
	if n <= 2 {
		return append([]geo.Location(nil), points...)
	}

	var maxDistance float64
	index := 0
	for i := 1; i < n-1; i++ {
		if d := b.PerpendicularDistance(points[0], points[n-1], points[i]); d > maxDistance {
			index, maxDistance = i, d
		}
	}

	if index == 0 || maxDistance <= threshold {
		return []geo.Location{points[0], points[n-1]}
	}

	left := b.douglasPeucker(points[:index+1], threshold)
	right := b.douglasPeucker(points[index:], threshold)
	return append(left[:len(left)-1], right...)
}

// angleSimplify keeps an interior point only when the bearing into it and the
// bearing out of it differ by more than minAngle. Shapes of three points or fewer
// are returned as is.
func (b *base) angleSimplify(points []geo.Location, minAngle float64) ([]geo.Location, error) {
	n := len(points)
	if n <= 3 {
		return points, nil
	}

	result := make([]geo.Location, 0, n)
	result = append(result, points[0])
	for i := 1; i < n-1; i++ {
		in, err := b.solver.InitialBearing(points[i-1], points[i])
		if err != nil {
			return nil, err
		}
		out, err := b.solver.InitialBearing(points[i], points[i+1])
		if err != nil {
			return nil, err
		}
		if turn(in, out) > minAngle {
			result = append(result, points[i])
		}
	}
	return append(result, points[n-1]), nil
}

// turn is the smaller angle between two bearings, in [0, 180]
func turn(a, b float64) float64 {
	return math.Min(math.Mod(a-b+360, 360), math.Mod(b-a+360, 360))
}
