package polyline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dpup/geocalc/internal/lib/geo"
)

// Factory builds polylines from user input: either a JSON array of locations or
// an encoded polyline.
type Factory struct {
	// Encoder decodes non JSON input; nil uses DefaultPrecision.
	Encoder *Encoder
}

// Create parses input into a polyline. Array members may be anything
// geo.ParseLocationJSON accepts, so [[lon, lat], ...], [{"lat":..,"lon":..}, ...]
// and ["52 12.345 N, 13 23.456 E", ...] all work. Input that is not a JSON array
// is treated as an encoded polyline.
func (f Factory) Create(input string) (*geo.Polyline, error) {
	input = strings.TrimSpace(input)

	if strings.HasPrefix(input, "[") {
		var members []interface{}
		if err := json.Unmarshal([]byte(input), &members); err == nil {
			locs := make([]geo.Location, len(members))
			for i, m := range members {
				loc, err := geo.ParseLocationJSON(m)
				if err != nil {
					return nil, fmt.Errorf("point %d: %w", i, err)
				}
				locs[i] = loc
			}
			return geo.NewPolyline(locs...)
		}
		// '[' is a valid encoded byte, so fall through to the decoder
	}

	enc := f.Encoder
	if enc == nil {
		var err error
		if enc, err = NewEncoder(DefaultPrecision); err != nil {
			return nil, err
		}
	}
	return enc.Decode(input)
}
