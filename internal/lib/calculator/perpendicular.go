package calculator

import (
	"math"

	"github.com/dpup/geocalc/internal/lib/geo"
)

type cartesian struct {
	x, y, z float64
}

func (v cartesian) dot(o cartesian) float64 {
	return v.x*o.x + v.y*o.y + v.z*o.z
}

func (v cartesian) cross(o cartesian) cartesian {
	return cartesian{
		x: v.y*o.z - v.z*o.y,
		y: v.z*o.x - v.x*o.z,
		z: v.x*o.y - v.y*o.x,
	}
}

func (v cartesian) length() float64 {
	return math.Sqrt(v.dot(v))
}

// toCartesian places l on the sphere of radius r using the colatitude, with the
// longitude folded into (0, 360].
func toCartesian(l geo.Location, r float64) cartesian {
	theta := radians(90 - l.Latitude())
	lon := l.Longitude()
	if lon <= 0 {
		lon += 360
	}
	phi := radians(lon)
	return cartesian{
		x: r * math.Cos(phi) * math.Sin(theta),
		y: r * math.Sin(phi) * math.Sin(theta),
		z: r * math.Cos(theta),
	}
}

// PerpendicularDistance returns the distance in meters from p to the great circle
// through lineStart and lineEnd, on the sphere of the ellipsoid's mean radius.
// Identical or antipodal endpoints define no circle and give 0.
func (b *base) PerpendicularDistance(lineStart, lineEnd, p geo.Location) float64 {
	r := b.ellipsoid.R()
	point := toCartesian(p, r)
	normal := toCartesian(lineStart, r).cross(toCartesian(lineEnd, r))

	// the endpoints are the same or antipodal when the normal vanishes; rounding
	// leaves it at a few ulps of r² rather than exactly zero
	length := normal.length()
	if length <= r*r*1e-15 {
		return 0
	}
	normal = cartesian{x: normal.x / length, y: normal.y / length, z: normal.z / length}

	theta := normal.dot(point) / point.length()
	// rounding can push the cosine just outside [-1, 1]
	theta = math.Max(-1, math.Min(1, theta))

	return math.Abs(math.Pi/2-math.Acos(theta)) * r
}

// DistanceToPolyline returns the shortest distance in meters from p to any segment
// of line. A segment whose great circle foot point falls outside it contributes
// the distance to its nearer endpoint.
func (b *base) DistanceToPolyline(p geo.Location, line *geo.Polyline) (float64, error) {
	points := line.Locations()
	r := b.ellipsoid.R()

	best := math.Inf(1)
	for i := 1; i < len(points); i++ {
		start, end := points[i-1], points[i]

		toStart, err := b.solver.Distance(start, p)
		if err != nil {
			return 0, err
		}
		toEnd, err := b.solver.Distance(end, p)
		if err != nil {
			return 0, err
		}
		segment, err := b.solver.Distance(start, end)
		if err != nil {
			return 0, err
		}

		d := math.Min(toStart, toEnd)
		if segment > 0 {
			crossTrack := b.PerpendicularDistance(start, end, p)
			if alongTrack(toStart, crossTrack, r) <= segment && alongTrack(toEnd, crossTrack, r) <= segment {
				d = math.Min(d, crossTrack)
			}
		}
		best = math.Min(best, d)
	}
	return best, nil
}

// alongTrack returns the distance from a segment endpoint to the foot of the
// perpendicular, given the endpoint to point distance and cross track distance.
func alongTrack(toPoint, crossTrack, r float64) float64 {
	c := math.Cos(toPoint/r) / math.Cos(crossTrack/r)
	return math.Acos(math.Max(-1, math.Min(1, c))) * r
}
