package calculator

import (
	"fmt"
	"math"

	"github.com/dpup/geocalc/internal/lib/geo"
)

// Intersects reports whether two shapes touch. Lines take part as two point
// polylines. Point pairs compare within the tolerance, a point is on a polyline
// when it lies within the tolerance of one of its segments, polylines cross when
// any of their segments do, and a polygon meets another shape when it contains one
// of that shape's vertices. Two polygons are checked in both directions.
// Polygon edges that cross without any contained vertex are not detected.
func (b *base) Intersects(x, y geo.Shape) (bool, error) {
	x, y = asPolyline(x), asPolyline(y)

	switch a := x.(type) {
	case geo.Location:
		switch c := y.(type) {
		case geo.Location:
			return b.SameLocation(a, c)
		case *geo.Polyline:
			return b.onPolyline(a, c), nil
		case *geo.Polygon:
			return b.Contains(c, a), nil
		}
	case *geo.Polyline:
		switch c := y.(type) {
		case geo.Location:
			return b.onPolyline(c, a), nil
		case *geo.Polyline:
			return polylinesCross(a, c), nil
		case *geo.Polygon:
			return b.containsAny(c, a.Locations()), nil
		}
	case *geo.Polygon:
		switch c := y.(type) {
		case geo.Location:
			return b.Contains(a, c), nil
		case *geo.Polyline:
			return b.containsAny(a, c.Locations()), nil
		case *geo.Polygon:
			return b.containsAny(a, c.Locations()) || b.containsAny(c, a.Locations()), nil
		}
	}
	return false, fmt.Errorf("%w: cannot intersect %T with %T", geo.ErrInvalidShape, x, y)
}

func asPolyline(s geo.Shape) geo.Shape {
	if l, ok := s.(*geo.Line); ok && l != nil {
		return l.ToPolyline()
	}
	return s
}

// onPolyline reports whether loc lies inside the box of some segment and within
// the tolerance of its great circle
func (b *base) onPolyline(loc geo.Location, line *geo.Polyline) bool {
	points := line.Locations()
	for i := 1; i < len(points); i++ {
		if geo.BoundsFromCorners(points[i-1], points[i]).Contains(loc) &&
			b.IsAllowed(b.PerpendicularDistance(points[i-1], points[i], loc)) {
			return true
		}
	}
	return false
}

func polylinesCross(a, c *geo.Polyline) bool {
	if !a.Bounds().Intersects(c.Bounds()) {
		return false
	}
	p1, p2 := a.Locations(), c.Locations()
	for i := 1; i < len(p1); i++ {
		for j := 1; j < len(p2); j++ {
			if SegmentsIntersect(p1[i-1], p1[i], p2[j-1], p2[j]) {
				return true
			}
		}
	}
	return false
}

// SegmentsIntersect reports whether segment p-q meets segment r-s, using the
// orientation of each segment's endpoints relative to the other. Collinear
// endpoints count when they fall within the other segment's bounding box.
func SegmentsIntersect(p, q, r, s geo.Location) bool {
	o1 := r.Orientation(p, q)
	o2 := s.Orientation(p, q)
	o3 := p.Orientation(r, s)
	o4 := q.Orientation(r, s)

	if o1 != o2 && o3 != o4 {
		return true
	}

	pq := geo.BoundsFromCorners(p, q)
	rs := geo.BoundsFromCorners(r, s)
	switch {
	case o1.IsCollinear() && pq.Contains(r):
		return true
	case o2.IsCollinear() && pq.Contains(s):
		return true
	case o3.IsCollinear() && rs.Contains(p):
		return true
	case o4.IsCollinear() && rs.Contains(q):
		return true
	}
	return false
}

func (b *base) containsAny(polygon *geo.Polygon, locs []geo.Location) bool {
	for _, l := range locs {
		if b.Contains(polygon, l) {
			return true
		}
	}
	return false
}

// Contains reports whether loc lies inside the polygon by even-odd ray casting.
// A point inside the exclusion ring is outside, unless that ring's own exclusion
// ring holds it again. Points exactly on an edge may fall either way.
func (b *base) Contains(polygon *geo.Polygon, loc geo.Location) bool {
	if polygon == nil || !polygon.Bounds().Contains(loc) {
		return false
	}
	if !ringContains(polygon.Locations(), loc) {
		return false
	}
	if hole := polygon.Hole(); hole != nil {
		return !b.Contains(hole, loc)
	}
	return true
}

func ringContains(ring []geo.Location, loc geo.Location) bool {
	x, y := loc.Longitude(), loc.Latitude()
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i].Longitude(), ring[i].Latitude()
		xj, yj := ring[j].Longitude(), ring[j].Latitude()
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// Area returns the approximate surface area in square meters using the shoelace
// formula over an equirectangular projection on the mean radius. Exclusion rings
// alternate between subtracting and adding back, matching Contains.
func (b *base) Area(polygon *geo.Polygon) float64 {
	r := b.ellipsoid.R()
	var area float64
	sign := 1.0
	for ring := polygon; ring != nil; ring = ring.Hole() {
		area += sign * ringArea(ring.Locations(), r)
		sign = -sign
	}
	return math.Max(area, 0)
}

func ringArea(ring []geo.Location, r float64) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		a, c := ring[i], ring[(i+1)%n]
		x1, y1 := project(a, r)
		x2, y2 := project(c, r)
		sum += x1*y2 - x2*y1
	}
	return math.Abs(sum) / 2
}

func project(l geo.Location, r float64) (float64, float64) {
	phi := radians(l.Latitude())
	return r * radians(l.Longitude()) * math.Cos(phi), r * phi
}
