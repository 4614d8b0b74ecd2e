package geo

import (
	"encoding/json"
	"math"
)

// Bearing holds the initial and final azimuths of a path, each optional,
// in degrees clockwise from north within [0, 360).
type Bearing struct {
	initial    float64
	final      float64
	hasInitial bool
	hasFinal   bool
}

// NewBearing creates a bearing with both angles set
func NewBearing(initial, final float64) Bearing {
	return Bearing{}.WithInitial(initial).WithFinal(final)
}

// Initial returns the initial azimuth and whether it is set
func (b Bearing) Initial() (float64, bool) { return b.initial, b.hasInitial }

// Final returns the final azimuth and whether it is set
func (b Bearing) Final() (float64, bool) { return b.final, b.hasFinal }

// WithInitial returns a copy of b with the initial azimuth set
func (b Bearing) WithInitial(deg float64) Bearing {
	b.initial, b.hasInitial = NormalizeDegrees(deg), true
	return b
}

// WithFinal returns a copy of b with the final azimuth set
func (b Bearing) WithFinal(deg float64) Bearing {
	b.final, b.hasFinal = NormalizeDegrees(deg), true
	return b
}

// Back returns the reverse azimuth at the end point, pointing back along the path
func (b Bearing) Back() (float64, bool) {
	if !b.hasFinal {
		return 0, false
	}
	return NormalizeDegrees(b.final + 180), true
}

// MarshalJSON encodes unset angles as null
func (b Bearing) MarshalJSON() ([]byte, error) {
	out := struct {
		Initial *float64 `json:"initial"`
		Final   *float64 `json:"final"`
	}{}
	if b.hasInitial {
		out.Initial = &b.initial
	}
	if b.hasFinal {
		out.Final = &b.final
	}
	return json.Marshal(out)
}

// NormalizeDegrees folds an angle into [0, 360)
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		// -1e-17 + 360 rounds up to 360
		deg = 0
	}
	return deg
}
