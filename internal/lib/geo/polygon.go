package geo

import (
	"fmt"

	geojson "github.com/paulmach/go.geojson"
	"github.com/twpayne/go-kml"
)

// Polygon is an implicitly closed ring of at least three locations. It may carry
// a nested exclusion ring, which may carry its own, forming a chain of rings.
type Polygon struct {
	path
	hole *Polygon
}

// NewPolygon creates a polygon; it fails with ErrInvalidShape for fewer than three points
func NewPolygon(locs ...Location) (*Polygon, error) {
	locs = openRing(locs)
	p := &Polygon{}
	if err := p.init(KindPolygon, 3, 0, locs); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Polygon) Kind() Kind { return KindPolygon }

// openRing drops a closing point that repeats the first; rings are stored open
func openRing(locs []Location) []Location {
	if n := len(locs); n > 1 && locs[0].Equal(locs[n-1]) {
		return locs[:n-1]
	}
	return locs
}

// Hole returns the exclusion ring, or nil
func (p *Polygon) Hole() *Polygon {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.hole
}

// SetHole attaches an exclusion ring; nil removes it. A ring chain may not loop back.
func (p *Polygon) SetHole(hole *Polygon) error {
	for r := hole; r != nil; r = r.Hole() {
		if r == p {
			return fmt.Errorf("%w: exclusion ring chain contains the polygon itself", ErrInvalidShape)
		}
	}
	return p.mutate(func() error {
		p.hole = hole
		return nil
	})
}

// Rings returns the polygon followed by its chain of exclusion rings
func (p *Polygon) Rings() []*Polygon {
	var rings []*Polygon
	for r := p; r != nil; r = r.Hole() {
		rings = append(rings, r)
	}
	return rings
}

// Append adds locations to the end of the ring
func (p *Polygon) Append(locs ...Location) error { return p.append(locs...) }

// Insert places loc at index i, shifting later points
func (p *Polygon) Insert(i int, loc Location) error { return p.insert(i, loc) }

// Set replaces the point at index i
func (p *Polygon) Set(i int, loc Location) error { return p.set(i, loc) }

// Remove deletes the point at index i; a polygon never drops below three points
func (p *Polygon) Remove(i int) (Location, error) { return p.remove(i) }

// Perimeter returns the length of the outer ring including the closing edge
func (p *Polygon) Perimeter(m Measurer) (float64, error) {
	return p.length(m, true)
}

// Clone returns a deep copy of the ring chain without change hooks
func (p *Polygon) Clone() *Polygon {
	c, _ := NewPolygon(p.Locations()...)
	if h := p.Hole(); h != nil {
		c.hole = h.Clone()
	}
	return c
}

// OnChange registers fn to be called after every mutation, replacing any previous hook
func (p *Polygon) OnChange(fn func(Shape)) {
	if fn == nil {
		p.setNotify(nil)
		return
	}
	p.setNotify(func() { fn(p) })
}

// GeoJSON returns the polygon with one closed ring per element of the ring chain
func (p *Polygon) GeoJSON() *geojson.Geometry {
	var rings [][][]float64
	for _, r := range p.Rings() {
		rings = append(rings, coordinates(closeRing(r.Locations())))
	}
	g := geojson.NewPolygonGeometry(rings)
	g.BoundingBox = p.Bounds().GeoJSONBBox()
	return g
}

// KML returns the polygon as a placemark; exclusion rings become inner boundaries
func (p *Polygon) KML(name string) *kml.CompoundElement {
	rings := p.Rings()
	children := []kml.Element{
		kml.OuterBoundaryIs(kml.LinearRing(kml.Coordinates(kmlCoordinates(closeRing(rings[0].Locations()))...))),
	}
	for _, r := range rings[1:] {
		children = append(children,
			kml.InnerBoundaryIs(kml.LinearRing(kml.Coordinates(kmlCoordinates(closeRing(r.Locations()))...))),
		)
	}
	return kml.Placemark(
		kml.Name(name),
		kml.Polygon(children...),
	)
}

func (p *Polygon) MarshalJSON() ([]byte, error) { return marshalGeometry(p) }

func (p *Polygon) sealed() {}

// closeRing repeats the first point at the end unless it is already there
func closeRing(locs []Location) []Location {
	if len(locs) == 0 || locs[0].Equal(locs[len(locs)-1]) {
		return locs
	}
	return append(locs, locs[0])
}
