package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnparsable is returned when a string holds no recognizable coordinates
var ErrUnparsable = errors.New("unparsable location")

const hemispheres = "NSEW"

var symbolReplacer = strings.NewReplacer("′′", `"`, "''", `"`, "″", `"`, "′", "'", "º", "°")

// unitReplacer turns degree, minute and second marks into separators
var unitReplacer = strings.NewReplacer("°", " ", "'", " ", `"`, " ")

// ParseLocation reads a location from text. Accepted forms:
//
//	{"lat": 52.2, "lon": 13.4}       JSON object (lat/latitude, lon/lng/long/longitude)
//	[13.4, 52.2]                     JSON array in GeoJSON [lon, lat] order
//	65.5, 44.755544                  decimal degrees, comma or space separated
//	52 12.345, 13 23.456             degrees and decimal minutes
//	52° 12.345′ N, 13° 23.456′ E     with symbols and hemispheres
//	N52° 12.345′ E13° 23.456′        hemisphere prefixes
//	40.2S, 135.3485W                 hemisphere suffixes
//	52°12′20.7″N 13°23′27.36″E       degrees, minutes and seconds
func ParseLocation(s string) (Location, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Location{}, fmt.Errorf("%w: empty input", ErrUnparsable)
	}
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		return parseJSONLocation(s)
	}

	first, second, err := splitComponents(symbolReplacer.Replace(s))
	if err != nil {
		return Location{}, err
	}
	a, hemiA, err := parseComponent(first)
	if err != nil {
		return Location{}, err
	}
	b, hemiB, err := parseComponent(second)
	if err != nil {
		return Location{}, err
	}

	if isLongitudeHemisphere(hemiA) || isLatitudeHemisphere(hemiB) {
		a, b = b, a
		hemiA, hemiB = hemiB, hemiA
	}
	if isLongitudeHemisphere(hemiA) || isLatitudeHemisphere(hemiB) {
		return Location{}, fmt.Errorf("%w: conflicting hemispheres in %q", ErrUnparsable, s)
	}
	return NewLocation(a, b), nil
}

// splitComponents separates the latitude and longitude parts of the text
func splitComponents(s string) (string, string, error) {
	if i := strings.Index(s, ","); i >= 0 {
		return s[:i], s[i+1:], nil
	}

	upper := strings.ToUpper(s)
	if i := strings.IndexAny(upper, hemispheres); i >= 0 {
		if strings.TrimSpace(upper[:i]) != "" {
			// suffix form: the first part ends with its hemisphere letter
			return s[:i+1], s[i+1:], nil
		}
		// prefix form: the second part starts at its own hemisphere letter
		if j := strings.IndexAny(upper[i+1:], hemispheres); j >= 0 {
			j += i + 1
			return s[:j], s[j:], nil
		}
	}

	fields := strings.Fields(s)
	switch len(fields) {
	case 2, 4, 6:
		half := len(fields) / 2
		return strings.Join(fields[:half], " "), strings.Join(fields[half:], " "), nil
	}
	return "", "", fmt.Errorf("%w: cannot separate latitude and longitude in %q", ErrUnparsable, s)
}

// parseComponent converts one coordinate part, made of degrees and optional
// minutes and seconds with an optional hemisphere letter, into signed degrees.
func parseComponent(s string) (float64, string, error) {
	s = strings.TrimSpace(s)
	var hemisphere string
	if s != "" && strings.ContainsAny(strings.ToUpper(s[:1]), hemispheres) {
		hemisphere, s = strings.ToUpper(s[:1]), s[1:]
	}
	if n := len(s); n > 0 && strings.ContainsAny(strings.ToUpper(s[n-1:]), hemispheres) {
		if hemisphere != "" {
			return 0, "", fmt.Errorf("%w: two hemispheres in %q", ErrUnparsable, s)
		}
		hemisphere, s = strings.ToUpper(s[n-1:]), s[:n-1]
	}

	fields := strings.Fields(unitReplacer.Replace(s))
	if len(fields) == 0 || len(fields) > 3 {
		return 0, "", fmt.Errorf("%w: %q", ErrUnparsable, s)
	}

	var parts [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, "", fmt.Errorf("%w: %q is not a number", ErrUnparsable, f)
		}
		if i > 0 && (v < 0 || v >= 60) {
			return 0, "", fmt.Errorf("%w: %q is not a valid minute or second", ErrUnparsable, f)
		}
		parts[i] = v
	}

	value := math.Abs(parts[0]) + parts[1]/60 + parts[2]/3600
	if strings.HasPrefix(fields[0], "-") {
		value = -value
	}
	if hemisphere == "S" || hemisphere == "W" {
		value = -value
	}
	return value, hemisphere, nil
}

func isLatitudeHemisphere(h string) bool  { return h == "N" || h == "S" }
func isLongitudeHemisphere(h string) bool { return h == "E" || h == "W" }

func parseJSONLocation(s string) (Location, error) {
	var raw interface{}
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	return locationFromJSON(raw)
}

// locationFromJSON accepts a decoded object or a [lon, lat] array
func locationFromJSON(raw interface{}) (Location, error) {
	switch v := raw.(type) {
	case []interface{}:
		if len(v) < 2 {
			return Location{}, fmt.Errorf("%w: array needs [lon, lat]", ErrUnparsable)
		}
		lon, okLon := jsonNumber(v[0])
		lat, okLat := jsonNumber(v[1])
		if !okLon || !okLat {
			return Location{}, fmt.Errorf("%w: array members must be numbers", ErrUnparsable)
		}
		return NewLocation(lat, lon), nil
	case map[string]interface{}:
		var lat, lon float64
		var hasLat, hasLon bool
		for key, value := range v {
			n, ok := jsonNumber(value)
			if !ok {
				continue
			}
			switch strings.ToLower(key) {
			case "lat", "latitude":
				lat, hasLat = n, true
			case "lon", "lng", "long", "longitude":
				lon, hasLon = n, true
			}
		}
		if !hasLat || !hasLon {
			return Location{}, fmt.Errorf("%w: object needs latitude and longitude", ErrUnparsable)
		}
		return NewLocation(lat, lon), nil
	default:
		return Location{}, fmt.Errorf("%w: unsupported json value", ErrUnparsable)
	}
}

// ParseLocationJSON converts an already decoded JSON value into a location
func ParseLocationJSON(raw interface{}) (Location, error) {
	if s, ok := raw.(string); ok {
		return ParseLocation(s)
	}
	return locationFromJSON(raw)
}

func jsonNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
