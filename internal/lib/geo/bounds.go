package geo

import (
	"math"
)

// Bounds is a latitude/longitude bounding box
type Bounds struct {
	north float64
	south float64
	west  float64
	east  float64
}

// NewBounds creates bounds from its four edges, in the original argument order
func NewBounds(north, west, south, east float64) Bounds {
	return Bounds{north: north, south: south, west: west, east: east}
}

// WholeWorld returns bounds covering the whole planet
func WholeWorld() Bounds {
	return NewBounds(90, -180, -90, 180)
}

// empty bounds are inverted so that the first Extend sets every edge
func emptyBounds() Bounds {
	return Bounds{north: -90, south: 90, west: 180, east: -180}
}

// BoundsOf returns the smallest bounds containing every location.
// With no locations it covers the whole world.
func BoundsOf(locs ...Location) Bounds {
	if len(locs) == 0 {
		return WholeWorld()
	}
	b := emptyBounds()
	for _, l := range locs {
		b = b.Extend(l)
	}
	return b
}

// BoundsFromCorners returns the bounds spanned by two opposite corners
func BoundsFromCorners(a, b Location) Bounds {
	return Bounds{
		north: math.Max(a.lat, b.lat),
		south: math.Min(a.lat, b.lat),
		west:  math.Min(a.lon, b.lon),
		east:  math.Max(a.lon, b.lon),
	}
}

// BoundsFromCenter returns the bounds whose diagonal has the given length in
// meters and is centered on center.
func BoundsFromCenter(center Location, diagonal float64, m Measurer) (Bounds, error) {
	half := diagonal / 2
	nw, err := m.Destination(center, 315, half)
	if err != nil {
		return Bounds{}, err
	}
	se, err := m.Destination(center, 135, half)
	if err != nil {
		return Bounds{}, err
	}
	return Bounds{north: nw.lat, west: nw.lon, south: se.lat, east: se.lon}, nil
}

func (b Bounds) North() float64 { return b.north }
func (b Bounds) South() float64 { return b.south }
func (b Bounds) West() float64  { return b.west }
func (b Bounds) East() float64  { return b.east }

// NorthWest returns the north-west corner
func (b Bounds) NorthWest() Location { return NewLocation(b.north, b.west) }

// SouthEast returns the south-east corner
func (b Bounds) SouthEast() Location { return NewLocation(b.south, b.east) }

// Extend returns b grown to include l
func (b Bounds) Extend(l Location) Bounds {
	b.south = math.Min(l.lat, b.south)
	b.west = math.Min(l.lon, b.west)
	b.north = math.Max(l.lat, b.north)
	b.east = math.Max(l.lon, b.east)
	return b
}

// Union returns the smallest bounds containing both b and other
func (b Bounds) Union(other Bounds) Bounds {
	return b.Extend(other.NorthWest()).Extend(other.SouthEast())
}

// Contains reports whether l lies inside b, edges included
func (b Bounds) Contains(l Location) bool {
	return l.lat <= b.north && l.lat >= b.south &&
		l.lon >= b.west && l.lon <= b.east
}

// ContainsAll reports whether every location lies inside b
func (b Bounds) ContainsAll(locs []Location) bool {
	for _, l := range locs {
		if !b.Contains(l) {
			return false
		}
	}
	return true
}

// Intersects reports whether the two boxes overlap, touching edges included
func (b Bounds) Intersects(other Bounds) bool {
	return ((other.west >= b.west && other.west <= b.east) ||
		(b.west >= other.west && b.west <= other.east)) &&
		((other.north <= b.north && other.north >= b.south) ||
			(b.north <= other.north && b.north >= other.south))
}

// Equal reports whether all four edges match exactly
func (b Bounds) Equal(other Bounds) bool {
	return b == other
}

// Center returns the great-circle midpoint of the north-west and south-east corners
func (b Bounds) Center() Location {
	north := toRadians(b.north)
	south := toRadians(b.south)
	west := toRadians(b.west)
	east := toRadians(b.east)

	deltaX := east - west
	x := math.Cos(south) * math.Cos(deltaX)
	y := math.Cos(south) * math.Sin(deltaX)

	return NewLocation(
		toDegrees(math.Atan2(math.Sin(north)+math.Sin(south), math.Sqrt(math.Pow(math.Cos(north)+x, 2)+y*y))),
		toDegrees(west+math.Atan2(y, math.Cos(north)+x)),
	)
}

// Expand grows the bounds by projecting the north-west corner 315° and the south-east
// corner 135° by distance meters. A negative distance shrinks them.
func (b Bounds) Expand(distance float64, m Measurer) (Bounds, error) {
	if distance == 0 {
		return b, nil
	}
	nwBearing, seBearing := 315.0, 135.0
	if distance < 0 {
		nwBearing, seBearing = seBearing, nwBearing
	}
	nw, err := m.Destination(b.NorthWest(), nwBearing, math.Abs(distance))
	if err != nil {
		return Bounds{}, err
	}
	se, err := m.Destination(b.SouthEast(), seBearing, math.Abs(distance))
	if err != nil {
		return Bounds{}, err
	}
	return BoundsFromCorners(nw, se), nil
}

// Slice returns the edges as [north, west, south, east]
func (b Bounds) Slice() []float64 {
	return []float64{b.north, b.west, b.south, b.east}
}

// GeoJSONBBox returns the edges in GeoJSON order [west, south, east, north]
func (b Bounds) GeoJSONBBox() []float64 {
	return []float64{b.west, b.south, b.east, b.north}
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }
