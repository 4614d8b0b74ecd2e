package geo

import (
	geojson "github.com/paulmach/go.geojson"
	"github.com/twpayne/go-kml"
)

// Polyline is an ordered path of at least two locations
type Polyline struct {
	path
}

// NewPolyline creates a polyline; it fails with ErrInvalidShape for fewer than two points
func NewPolyline(locs ...Location) (*Polyline, error) {
	p := &Polyline{}
	if err := p.init(KindPolyline, 2, 0, locs); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Polyline) Kind() Kind { return KindPolyline }

// Append adds locations to the end of the polyline
func (p *Polyline) Append(locs ...Location) error { return p.append(locs...) }

// Prepend adds locations to the start of the polyline
func (p *Polyline) Prepend(locs ...Location) error { return p.prepend(locs...) }

// Insert places loc at index i, shifting later points
func (p *Polyline) Insert(i int, loc Location) error { return p.insert(i, loc) }

// Set replaces the point at index i
func (p *Polyline) Set(i int, loc Location) error { return p.set(i, loc) }

// Remove deletes the point at index i; a polyline never drops below two points
func (p *Polyline) Remove(i int) (Location, error) { return p.remove(i) }

// Reverse flips the point order in place
func (p *Polyline) Reverse() { p.reverse() }

// Length returns the summed distance along the polyline
func (p *Polyline) Length(m Measurer) (float64, error) {
	return p.length(m, false)
}

// ToLine returns the line from the first to the last point
func (p *Polyline) ToLine() *Line {
	locs := p.Locations()
	return NewLine(locs[0], locs[len(locs)-1])
}

// Clone returns an independent copy without the change hook
func (p *Polyline) Clone() *Polyline {
	c, _ := NewPolyline(p.Locations()...)
	return c
}

// OnChange registers fn to be called after every mutation, replacing any previous hook
func (p *Polyline) OnChange(fn func(Shape)) {
	if fn == nil {
		p.setNotify(nil)
		return
	}
	p.setNotify(func() { fn(p) })
}

// GeoJSON returns the polyline as a GeoJSON LineString with a bounding box
func (p *Polyline) GeoJSON() *geojson.Geometry {
	g := geojson.NewLineStringGeometry(coordinates(p.Locations()))
	g.BoundingBox = p.Bounds().GeoJSONBBox()
	return g
}

// KML returns the polyline as a KML placemark
func (p *Polyline) KML(name string) *kml.CompoundElement {
	return lineStringPlacemark(name, p.Locations())
}

func (p *Polyline) MarshalJSON() ([]byte, error) { return marshalGeometry(p) }

func (p *Polyline) sealed() {}
