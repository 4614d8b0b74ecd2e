package geo

import (
	"encoding/json"
	"fmt"
	"io"

	geojson "github.com/paulmach/go.geojson"
	"github.com/twpayne/go-kml"
)

func marshalGeometry(s Shape) ([]byte, error) {
	return json.Marshal(s.GeoJSON())
}

// ShapeFromGeoJSON parses a GeoJSON Point, LineString or Polygon geometry.
// LineStrings become polylines; the rings of a polygon after the first become its
// chain of exclusion rings.
func ShapeFromGeoJSON(data []byte) (Shape, error) {
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode geojson: %w", err)
	}

	switch g.Type {
	case geojson.GeometryPoint:
		if len(g.Point) < 2 {
			return nil, fmt.Errorf("%w: point needs two coordinates", ErrInvalidShape)
		}
		return locationFromPosition(g.Point), nil
	case geojson.GeometryLineString:
		locs, err := locationsFromPositions(g.LineString)
		if err != nil {
			return nil, err
		}
		return NewPolyline(locs...)
	case geojson.GeometryPolygon:
		if len(g.Polygon) == 0 {
			return nil, fmt.Errorf("%w: polygon has no rings", ErrInvalidShape)
		}
		var outer, last *Polygon
		for _, ring := range g.Polygon {
			locs, err := locationsFromPositions(ring)
			if err != nil {
				return nil, err
			}
			p, err := NewPolygon(locs...)
			if err != nil {
				return nil, err
			}
			if outer == nil {
				outer = p
			} else {
				last.hole = p
			}
			last = p
		}
		return outer, nil
	default:
		return nil, fmt.Errorf("%w: unsupported geojson type %q", ErrInvalidShape, g.Type)
	}
}

func locationFromPosition(pos []float64) Location {
	return NewLocation(pos[1], pos[0])
}

func locationsFromPositions(positions [][]float64) ([]Location, error) {
	locs := make([]Location, len(positions))
	for i, pos := range positions {
		if len(pos) < 2 {
			return nil, fmt.Errorf("%w: position %d needs two coordinates", ErrInvalidShape, i)
		}
		locs[i] = locationFromPosition(pos)
	}
	return locs, nil
}

// WriteKML writes a KML document holding one placemark per shape. Placemarks are
// named "<name> <index>" when more than one shape is given.
func WriteKML(w io.Writer, name string, shapes ...Shape) error {
	placemarks := make([]kml.Element, 0, len(shapes)+1)
	placemarks = append(placemarks, kml.Name(name))
	for i, s := range shapes {
		placemarkName := name
		if len(shapes) > 1 {
			placemarkName = fmt.Sprintf("%s %d", name, i+1)
		}
		placemarks = append(placemarks, s.KML(placemarkName))
	}
	return kml.KML(kml.Document(placemarks...)).WriteIndent(w, "", "  ")
}
