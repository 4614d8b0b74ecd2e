package ellipsoid

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknown is returned when a name does not match any reference ellipsoid
var ErrUnknown = errors.New("unknown ellipsoid")

// Ellipsoid identifies a reference ellipsoid
type Ellipsoid int

const (
	WGS66 Ellipsoid = iota + 1
	WGS72
	GRS80
	WGS84
)

// params holds the constants of one reference ellipsoid
type params struct {
	name              string
	a                 float64
	b                 float64
	inverseFlattening float64
	flattening        float64
	r                 float64
}

var table = map[Ellipsoid]params{
	WGS66: {
		name:              "WGS_66",
		a:                 6378145.0,
		b:                 6356759.7694887,
		inverseFlattening: 298.25,
		flattening:        0.0033528918692372,
		r:                 6371016.5898296,
	},
	WGS72: {
		name:              "WGS_72",
		a:                 6378135.0,
		b:                 6356750.5200161,
		inverseFlattening: 298.26,
		flattening:        0.0033527794541675,
		r:                 6371006.8400054,
	},
	GRS80: {
		name:              "GRS_80",
		a:                 6378137.0,
		b:                 6356752.3141403,
		inverseFlattening: 298.25722210088,
		flattening:        0.0033528106811837,
		r:                 6371008.7713801,
	},
	WGS84: {
		name:              "WGS_84",
		a:                 6378137.0,
		b:                 6356752.3142452,
		inverseFlattening: 298.257223563,
		flattening:        0.0033528106647475,
		r:                 6371008.7714151,
	},
}

// All returns every supported ellipsoid
func All() []Ellipsoid {
	return []Ellipsoid{WGS66, WGS72, GRS80, WGS84}
}

// Valid reports whether e is one of the supported ellipsoids
func (e Ellipsoid) Valid() bool {
	_, ok := table[e]
	return ok
}

// lookup panics on an invalid value: an Ellipsoid can only be obtained from the
// constants or from Parse, so a miss is a programming error.
func (e Ellipsoid) lookup() params {
	p, ok := table[e]
	if !ok {
		panic(fmt.Sprintf("ellipsoid: invalid value %d", int(e)))
	}
	return p
}

// A returns the semi-major axis in meters
func (e Ellipsoid) A() float64 { return e.lookup().a }

// B returns the semi-minor axis in meters
func (e Ellipsoid) B() float64 { return e.lookup().b }

// Flattening returns f = (a-b)/a
func (e Ellipsoid) Flattening() float64 { return e.lookup().flattening }

// InverseFlattening returns 1/f
func (e Ellipsoid) InverseFlattening() float64 { return e.lookup().inverseFlattening }

// R returns the mean radius in meters
func (e Ellipsoid) R() float64 { return e.lookup().r }

func (e Ellipsoid) String() string {
	if p, ok := table[e]; ok {
		return p.name
	}
	return fmt.Sprintf("Ellipsoid(%d)", int(e))
}

// Parse resolves a name like "WGS_84", "WGS84" or "wgs-84" to an ellipsoid
func Parse(name string) (Ellipsoid, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	for e, p := range table {
		if strings.ReplaceAll(p.name, "_", "") == key {
			return e, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknown, name)
}

// FromName resolves name and falls back to the given default when it is unknown
func FromName(name string, fallback Ellipsoid) Ellipsoid {
	e, err := Parse(name)
	if err != nil {
		return fallback
	}
	return e
}

// MarshalText implements encoding.TextMarshaler
func (e Ellipsoid) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknown, int(e))
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (e *Ellipsoid) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
