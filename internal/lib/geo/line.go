package geo

import (
	geojson "github.com/paulmach/go.geojson"
	"github.com/twpayne/go-kml"
)

// Line is a segment between exactly two locations
type Line struct {
	path
}

// NewLine creates a line from start to end
func NewLine(start, end Location) *Line {
	l := &Line{}
	// two points always satisfy the invariant
	_ = l.init(KindLine, 2, 2, []Location{start, end})
	return l
}

func (l *Line) Kind() Kind { return KindLine }

func (l *Line) Start() Location { return l.At(0) }
func (l *Line) End() Location   { return l.At(1) }

func (l *Line) SetStart(loc Location) { _ = l.set(0, loc) }
func (l *Line) SetEnd(loc Location)   { _ = l.set(1, loc) }

// Reverse returns a new line running from end to start
func (l *Line) Reverse() *Line {
	return NewLine(l.End(), l.Start())
}

// Orientation returns the side of the line that loc lies on
func (l *Line) Orientation(loc Location) Orientation {
	return loc.Orientation(l.Start(), l.End())
}

// Length returns the distance between the endpoints
func (l *Line) Length(m Measurer) (float64, error) {
	return m.Distance(l.Start(), l.End())
}

// ToPolyline converts the line to a two point polyline
func (l *Line) ToPolyline() *Polyline {
	p, _ := NewPolyline(l.Start(), l.End())
	return p
}

// Clone returns an independent copy without the change hook
func (l *Line) Clone() *Line {
	return NewLine(l.Start(), l.End())
}

// OnChange registers fn to be called after every mutation, replacing any previous hook
func (l *Line) OnChange(fn func(Shape)) {
	if fn == nil {
		l.setNotify(nil)
		return
	}
	l.setNotify(func() { fn(l) })
}

// GeoJSON returns the line as a GeoJSON LineString with a bounding box
func (l *Line) GeoJSON() *geojson.Geometry {
	g := geojson.NewLineStringGeometry(coordinates(l.Locations()))
	g.BoundingBox = l.Bounds().GeoJSONBBox()
	return g
}

// KML returns the line as a KML placemark
func (l *Line) KML(name string) *kml.CompoundElement {
	return lineStringPlacemark(name, l.Locations())
}

func (l *Line) MarshalJSON() ([]byte, error) { return marshalGeometry(l) }

func (l *Line) sealed() {}

func lineStringPlacemark(name string, locs []Location) *kml.CompoundElement {
	return kml.Placemark(
		kml.Name(name),
		kml.LineString(
			kml.Tessellate(true),
			kml.Coordinates(kmlCoordinates(locs)...),
		),
	)
}
