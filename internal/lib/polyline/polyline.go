// Package polyline converts shapes to and from the encoded polyline text format
// used by mapping APIs: latitude then longitude, scaled by 10^precision, delta
// encoded and packed into printable 5-bit chunks.
package polyline

import (
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-polyline"

	"github.com/dpup/geocalc/internal/lib/geo"
)

// DefaultPrecision is the number of decimal places kept by NewEncoder(DefaultPrecision)
// and by the zero value of Factory. The common web format uses 5.
const DefaultPrecision = 6

// MaxPrecision is the largest precision whose scaled coordinates still fit an int64
const MaxPrecision = 15

// ErrInvalidEncoding is returned when an encoded polyline cannot be decoded
var ErrInvalidEncoding = errors.New("invalid polyline encoding")

// Encoder encodes and decodes polylines at a fixed precision
type Encoder struct {
	precision int
	codec     polyline.Codec
}

// NewEncoder returns an encoder for the given number of decimal places
func NewEncoder(precision int) (*Encoder, error) {
	if precision < 0 || precision > MaxPrecision {
		return nil, fmt.Errorf("%w: precision %d outside 0..%d", geo.ErrInvalidShape, precision, MaxPrecision)
	}
	return &Encoder{
		precision: precision,
		codec:     polyline.Codec{Dim: 2, Scale: math.Pow10(precision)},
	}, nil
}

// Precision returns the number of decimal places kept
func (e *Encoder) Precision() int { return e.precision }

// Encode returns the encoded form of line
func (e *Encoder) Encode(line *geo.Polyline) string {
	return e.EncodeLocations(line.Locations())
}

// EncodeLocations returns the encoded form of locs. An empty slice encodes to "".
func (e *Encoder) EncodeLocations(locs []geo.Location) string {
	coords := make([][]float64, len(locs))
	for i, l := range locs {
		coords[i] = []float64{l.Latitude(), l.Longitude()}
	}
	return string(e.codec.EncodeCoords(nil, coords))
}

// DecodeLocations returns the locations held in encoded
func (e *Encoder) DecodeLocations(encoded string) ([]geo.Location, error) {
	coords, rest, err := e.codec.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidEncoding, len(rest))
	}

	locs := make([]geo.Location, len(coords))
	for i, c := range coords {
		locs[i] = geo.NewLocation(c[0], c[1])
	}
	return locs, nil
}

// Decode returns the polyline held in encoded. Fewer than two points fail with
// geo.ErrInvalidShape.
func (e *Encoder) Decode(encoded string) (*geo.Polyline, error) {
	locs, err := e.DecodeLocations(encoded)
	if err != nil {
		return nil, err
	}
	return geo.NewPolyline(locs...)
}
