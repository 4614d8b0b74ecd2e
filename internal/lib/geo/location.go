package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	geojson "github.com/paulmach/go.geojson"
	"github.com/twpayne/go-kml"
)

// Location is a normalized latitude/longitude pair in degrees.
// The zero value is the (0, 0) point.
type Location struct {
	lat float64
	lon float64
}

// Locator is implemented by values that carry a location, such as place records
// owned by callers. Location itself is a Locator.
type Locator interface {
	GeoLocation() Location
}

// NewLocation creates a Location, wrapping and reflecting out of range values so
// that latitude is within [-90, 90] and longitude within [-180, 180].
func NewLocation(latitude, longitude float64) Location {
	return Location{
		lat: normalizeLatitude(latitude),
		lon: normalizeLongitude(longitude),
	}
}

func normalizeLatitude(lat float64) float64 {
	if lat >= 360 || lat <= -360 {
		lat = math.Mod(lat, 360)
	}
	if lat >= 180 || lat <= -180 {
		lat = -math.Mod(lat, 180)
	}
	if lat > 90 {
		lat = 90 - math.Mod(lat, 90)
	} else if lat < -90 {
		lat = -90 - math.Mod(lat, 90)
	}
	return lat
}

func normalizeLongitude(lon float64) float64 {
	if lon >= 360 || lon <= -360 {
		lon = math.Mod(lon, 360)
	}
	if lon > 180 {
		lon = -180 + math.Mod(lon, 180)
	} else if lon < -180 {
		lon = 180 + math.Mod(lon, 180)
	}
	return lon
}

// Latitude returns the latitude in degrees
func (l Location) Latitude() float64 { return l.lat }

// Longitude returns the longitude in degrees
func (l Location) Longitude() float64 { return l.lon }

// GeoLocation implements Locator
func (l Location) GeoLocation() Location { return l }

// WithLatitude returns a copy of l with a new, normalized latitude
func (l Location) WithLatitude(latitude float64) Location {
	return NewLocation(latitude, l.lon)
}

// WithLongitude returns a copy of l with a new, normalized longitude
func (l Location) WithLongitude(longitude float64) Location {
	return NewLocation(l.lat, longitude)
}

// Equal reports exact equality. Use a calculator for tolerance based comparison.
func (l Location) Equal(other Location) bool {
	return l.lat == other.lat && l.lon == other.lon
}

// Orientation returns the side of the directed line lineStart->lineEnd that l lies on
func (l Location) Orientation(lineStart, lineEnd Location) Orientation {
	return OrientationOf(
		(lineEnd.lat-lineStart.lat)*(l.lon-lineEnd.lon) -
			(lineEnd.lon-lineStart.lon)*(l.lat-lineEnd.lat),
	)
}

// String formats the location as "lat,lon"
func (l Location) String() string {
	return strconv.FormatFloat(l.lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.lon, 'f', -1, 64)
}

// Kind implements Shape
func (l Location) Kind() Kind { return KindPoint }

// Locations implements Shape
func (l Location) Locations() []Location { return []Location{l} }

// Bounds implements Shape; a point has degenerate bounds
func (l Location) Bounds() Bounds { return BoundsOf(l) }

// GeoJSON returns the location as a GeoJSON Point
func (l Location) GeoJSON() *geojson.Geometry {
	return geojson.NewPointGeometry(l.coordinate())
}

// KML returns a placemark holding the location as a KML Point
func (l Location) KML(name string) *kml.CompoundElement {
	return kml.Placemark(
		kml.Name(name),
		kml.Point(kml.Coordinates(l.kmlCoordinate())),
	)
}

func (l Location) sealed() {}

// coordinate returns the GeoJSON [lon, lat] position
func (l Location) coordinate() []float64 {
	return []float64{l.lon, l.lat}
}

func (l Location) kmlCoordinate() kml.Coordinate {
	return kml.Coordinate{Lon: l.lon, Lat: l.lat}
}

// MarshalJSON encodes the location as a GeoJSON Point
func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.GeoJSON())
}

// UnmarshalJSON accepts a GeoJSON Point or any JSON form understood by ParseLocation
func (l *Location) UnmarshalJSON(data []byte) error {
	if g, err := geojson.UnmarshalGeometry(data); err == nil && g.IsPoint() {
		if len(g.Point) < 2 {
			return fmt.Errorf("%w: point needs two coordinates", ErrUnparsable)
		}
		*l = NewLocation(g.Point[1], g.Point[0])
		return nil
	}
	parsed, err := ParseLocation(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
