package geo

import (
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidKML is returned for documents ReadKML cannot interpret
var ErrInvalidKML = errors.New("invalid kml")

// Placemark is a named shape read from a KML document
type Placemark struct {
	Name        string
	Description string // plain text, markup stripped
	Shape       Shape
}

type kmlCoordinateList struct {
	Coordinates string `xml:"coordinates"`
}

type kmlRing struct {
	LinearRing kmlCoordinateList `xml:"LinearRing"`
}

type kmlPlacemark struct {
	Name        string             `xml:"name"`
	Description string             `xml:"description"`
	Point       *kmlCoordinateList `xml:"Point"`
	LineString  *kmlCoordinateList `xml:"LineString"`
	Polygon     *struct {
		Outer kmlRing   `xml:"outerBoundaryIs"`
		Inner []kmlRing `xml:"innerBoundaryIs"`
	} `xml:"Polygon"`
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// ReadKML returns every Point, LineString and Polygon placemark in the document,
// at any folder depth, in document order. Placemarks with other geometries are
// skipped. Inner boundaries become the polygon's chain of exclusion rings.
func ReadKML(r io.Reader) ([]Placemark, error) {
	d := xml.NewDecoder(r)
	var placemarks []Placemark
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return placemarks, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidKML, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Placemark" {
			continue
		}
		var raw kmlPlacemark
		if err := d.DecodeElement(&raw, &start); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidKML, err)
		}

		shape, err := raw.shape()
		if err != nil {
			return nil, fmt.Errorf("placemark %q: %w", raw.Name, err)
		}
		if shape == nil {
			continue
		}
		placemarks = append(placemarks, Placemark{
			Name:        strings.TrimSpace(raw.Name),
			Description: plainText(raw.Description),
			Shape:       shape,
		})
	}
}

func (p kmlPlacemark) shape() (Shape, error) {
	switch {
	case p.Point != nil:
		locs, err := parseKMLCoordinates(p.Point.Coordinates)
		if err != nil {
			return nil, err
		}
		if len(locs) != 1 {
			return nil, fmt.Errorf("%w: point has %d coordinates", ErrInvalidKML, len(locs))
		}
		return locs[0], nil
	case p.LineString != nil:
		locs, err := parseKMLCoordinates(p.LineString.Coordinates)
		if err != nil {
			return nil, err
		}
		return NewPolyline(locs...)
	case p.Polygon != nil:
		outer, err := kmlPolygon(p.Polygon.Outer)
		if err != nil {
			return nil, err
		}
		last := outer
		for _, ring := range p.Polygon.Inner {
			hole, err := kmlPolygon(ring)
			if err != nil {
				return nil, err
			}
			last.hole = hole
			last = hole
		}
		return outer, nil
	}
	return nil, nil
}

func kmlPolygon(ring kmlRing) (*Polygon, error) {
	locs, err := parseKMLCoordinates(ring.LinearRing.Coordinates)
	if err != nil {
		return nil, err
	}
	return NewPolygon(locs...)
}

// parseKMLCoordinates reads whitespace separated "lon,lat[,alt]" tuples
func parseKMLCoordinates(s string) ([]Location, error) {
	fields := strings.Fields(s)
	locs := make([]Location, 0, len(fields))
	for _, f := range fields {
		parts := strings.Split(f, ",")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("%w: coordinate %q", ErrInvalidKML, f)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: longitude %q", ErrInvalidKML, parts[0])
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: latitude %q", ErrInvalidKML, parts[1])
		}
		locs = append(locs, NewLocation(lat, lon))
	}
	return locs, nil
}

func plainText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}
