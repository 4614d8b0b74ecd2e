package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dpup/prefab/logging"

	"github.com/dpup/geocalc/internal/lib/batch"
	"github.com/dpup/geocalc/internal/lib/calculator"
	"github.com/dpup/geocalc/internal/lib/geo"
	"github.com/dpup/geocalc/internal/lib/polyline"
	"github.com/dpup/geocalc/internal/lib/proximity"
)

const metersToMiles = 0.000621371

func runDistance(ctx context.Context, e *env, args []string) error {
	fs := e.flags("distance")
	from := fs.String("from", "", "Start point")
	to := fs.String("to", "", "End point")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *from == "" || *to == "" {
		return e.usage()
	}

	a, b, calc, err := e.pair(*from, *to)
	if err != nil {
		return err
	}
	distance, err := calc.Distance(a, b)
	if err != nil {
		return fmt.Errorf("failed to calculate distance: %w", err)
	}

	fmt.Fprintf(e.out, "Distance between points:\n")
	fmt.Fprintf(e.out, "  Point 1: (%.6f, %.6f)\n", a.Latitude(), a.Longitude())
	fmt.Fprintf(e.out, "  Point 2: (%.6f, %.6f)\n", b.Latitude(), b.Longitude())
	fmt.Fprintf(e.out, "  Solver: %s on %s\n", calc.Kind(), calc.Ellipsoid())
	fmt.Fprintf(e.out, "  Distance: %.3f meters (%.3f km, %.3f miles)\n",
		distance, distance/1000, distance*metersToMiles)
	return nil
}

func runBearing(ctx context.Context, e *env, args []string) error {
	fs := e.flags("bearing")
	from := fs.String("from", "", "Start point")
	to := fs.String("to", "", "End point")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *from == "" || *to == "" {
		return e.usage()
	}

	a, b, calc, err := e.pair(*from, *to)
	if err != nil {
		return err
	}
	bearing, err := calc.FullBearing(a, b)
	if err != nil {
		return fmt.Errorf("failed to calculate bearing: %w", err)
	}

	fmt.Fprintf(e.out, "Bearing between points:\n")
	if initial, ok := bearing.Initial(); ok {
		fmt.Fprintf(e.out, "  Initial: %.5f°\n", initial)
	}
	if final, ok := bearing.Final(); ok {
		fmt.Fprintf(e.out, "  Final: %.5f°\n", final)
	}
	if back, ok := bearing.Back(); ok {
		fmt.Fprintf(e.out, "  Back: %.5f°\n", back)
	}
	return nil
}

func runDestination(ctx context.Context, e *env, args []string) error {
	fs := e.flags("destination")
	from := fs.String("from", "", "Origin")
	bearing := fs.Float64("bearing", 0, "Initial bearing in degrees")
	distance := fs.Float64("distance", 0, "Distance in meters")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *from == "" {
		return e.usage()
	}

	origin, err := geo.ParseLocation(*from)
	if err != nil {
		return fmt.Errorf("invalid -from: %w", err)
	}
	calc, err := e.calculator()
	if err != nil {
		return err
	}
	dest, err := calc.Destination(origin, *bearing, *distance)
	if err != nil {
		return fmt.Errorf("failed to project destination: %w", err)
	}

	fmt.Fprintf(e.out, "Destination:\n")
	fmt.Fprintf(e.out, "  Origin: (%.6f, %.6f)\n", origin.Latitude(), origin.Longitude())
	fmt.Fprintf(e.out, "  Bearing: %.5f°, distance: %.3f meters\n", geo.NormalizeDegrees(*bearing), *distance)
	fmt.Fprintf(e.out, "  Destination: (%.8f, %.8f)\n", dest.Latitude(), dest.Longitude())
	if *distance > 0 {
		if final, err := calc.FinalBearing(origin, dest); err == nil {
			fmt.Fprintf(e.out, "  Final bearing: %.5f°\n", final)
		}
	}
	return nil
}

func runPerpendicular(ctx context.Context, e *env, args []string) error {
	fs := e.flags("perpendicular")
	point := fs.String("point", "", "Point to measure from")
	line := fs.String("line", "", "Polyline; the first two points define the great circle")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *point == "" || *line == "" {
		return e.usage()
	}

	p, err := geo.ParseLocation(*point)
	if err != nil {
		return fmt.Errorf("invalid -point: %w", err)
	}
	path, err := e.polyline(*line)
	if err != nil {
		return fmt.Errorf("invalid -line: %w", err)
	}
	calc, err := e.calculator()
	if err != nil {
		return err
	}

	toCircle := calc.PerpendicularDistance(path.At(0), path.At(1), p)
	toPath, err := calc.DistanceToPolyline(p, path)
	if err != nil {
		return fmt.Errorf("failed to measure distance to polyline: %w", err)
	}

	fmt.Fprintf(e.out, "Distance from point to line:\n")
	fmt.Fprintf(e.out, "  Point: (%.6f, %.6f)\n", p.Latitude(), p.Longitude())
	fmt.Fprintf(e.out, "  Polyline: %d points\n", path.Len())
	fmt.Fprintf(e.out, "  Great circle: %.3f meters\n", toCircle)
	fmt.Fprintf(e.out, "  Polyline: %.3f meters\n", toPath)
	fmt.Fprintf(e.out, "  Within tolerance: %t\n", calc.IsAllowed(toPath))
	return nil
}

func runSimplify(ctx context.Context, e *env, args []string) error {
	fs := e.flags("simplify")
	shape := fs.String("shape", "", "Shape to simplify")
	asPolygon := fs.Bool("polygon", false, "Treat a point list as a polygon ring")
	maxDistance := fs.Float64("max-distance", 0, "Douglas-Peucker tolerance in meters")
	minAngle := fs.Float64("min-angle", 0, "Drop points turning less than this many degrees")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *shape == "" {
		return e.usage()
	}

	s, err := e.shape(*shape, *asPolygon)
	if err != nil {
		return fmt.Errorf("invalid -shape: %w", err)
	}
	calc, err := e.calculator()
	if err != nil {
		return err
	}

	var opts []calculator.SimplifyOption
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max-distance":
			opts = append(opts, calculator.WithMaxDistance(*maxDistance))
		case "min-angle":
			opts = append(opts, calculator.WithMinAngle(*minAngle))
		}
	})

	simplified, err := calc.Simplify(s, opts...)
	if err != nil {
		return fmt.Errorf("failed to simplify: %w", err)
	}

	fmt.Fprintf(e.out, "Simplified %s: %d -> %d points\n",
		s.Kind(), len(s.Locations()), len(simplified.Locations()))
	if line, ok := simplified.(*geo.Polyline); ok {
		enc, err := e.encoder()
		if err != nil {
			return err
		}
		fmt.Fprintf(e.out, "  Encoded: %s\n", enc.Encode(line))
	}
	return e.printJSON(simplified)
}

func runIntersects(ctx context.Context, e *env, args []string) error {
	fs := e.flags("intersects")
	a := fs.String("a", "", "First shape")
	b := fs.String("b", "", "Second shape")
	aPolygon := fs.Bool("a-polygon", false, "Treat -a as a polygon ring")
	bPolygon := fs.Bool("b-polygon", false, "Treat -b as a polygon ring")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *a == "" || *b == "" {
		return e.usage()
	}

	x, err := e.shape(*a, *aPolygon)
	if err != nil {
		return fmt.Errorf("invalid -a: %w", err)
	}
	y, err := e.shape(*b, *bPolygon)
	if err != nil {
		return fmt.Errorf("invalid -b: %w", err)
	}
	calc, err := e.calculator()
	if err != nil {
		return err
	}

	ok, err := calc.Intersects(x, y)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Intersection of %s and %s:\n", x.Kind(), y.Kind())
	fmt.Fprintf(e.out, "  Intersects: %t\n", ok)
	return nil
}

func runContains(ctx context.Context, e *env, args []string) error {
	fs := e.flags("contains")
	polygon := fs.String("polygon", "", "Polygon ring")
	hole := fs.String("hole", "", "Optional exclusion ring")
	point := fs.String("point", "", "Point to test")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *polygon == "" || *point == "" {
		return e.usage()
	}

	p, err := e.polygon(*polygon, *hole)
	if err != nil {
		return err
	}
	loc, err := geo.ParseLocation(*point)
	if err != nil {
		return fmt.Errorf("invalid -point: %w", err)
	}
	calc, err := e.calculator()
	if err != nil {
		return err
	}

	fmt.Fprintf(e.out, "Polygon containment:\n")
	fmt.Fprintf(e.out, "  Polygon: %d rings\n", len(p.Rings()))
	fmt.Fprintf(e.out, "  Point: (%.6f, %.6f)\n", loc.Latitude(), loc.Longitude())
	fmt.Fprintf(e.out, "  Contains: %t\n", calc.Contains(p, loc))
	return nil
}

func runArea(ctx context.Context, e *env, args []string) error {
	fs := e.flags("area")
	polygon := fs.String("polygon", "", "Polygon ring")
	hole := fs.String("hole", "", "Optional exclusion ring")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *polygon == "" {
		return e.usage()
	}

	p, err := e.polygon(*polygon, *hole)
	if err != nil {
		return err
	}
	calc, err := e.calculator()
	if err != nil {
		return err
	}
	perimeter, err := p.Perimeter(calc)
	if err != nil {
		return fmt.Errorf("failed to measure perimeter: %w", err)
	}

	area := calc.Area(p)
	fmt.Fprintf(e.out, "Polygon area:\n")
	fmt.Fprintf(e.out, "  Points: %d, rings: %d\n", p.Len(), len(p.Rings()))
	fmt.Fprintf(e.out, "  Perimeter: %.3f meters\n", perimeter)
	fmt.Fprintf(e.out, "  Area: %.1f m² (%.3f km²)\n", area, area/1e6)
	return nil
}

func runEncode(ctx context.Context, e *env, args []string) error {
	fs := e.flags("encode")
	shape := fs.String("shape", "", "Points to encode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *shape == "" {
		return e.usage()
	}

	s, err := e.shape(*shape, false)
	if err != nil {
		return fmt.Errorf("invalid -shape: %w", err)
	}
	enc, err := e.encoder()
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, enc.EncodeLocations(s.Locations()))
	return nil
}

func runDecode(ctx context.Context, e *env, args []string) error {
	fs := e.flags("decode")
	encoded := fs.String("polyline", "", "Encoded polyline string to decode")
	verbose := fs.Bool("verbose", false, "Show all decoded points")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *encoded == "" {
		return e.usage()
	}

	enc, err := e.encoder()
	if err != nil {
		return err
	}
	points, err := enc.DecodeLocations(*encoded)
	if err != nil {
		return fmt.Errorf("failed to decode polyline: %w", err)
	}

	fmt.Fprintf(e.out, "Polyline decoded successfully:\n")
	fmt.Fprintf(e.out, "  Precision: %d\n", enc.Precision())
	fmt.Fprintf(e.out, "  Points: %d\n", len(points))
	if len(points) > 0 {
		fmt.Fprintf(e.out, "  Start: (%.6f, %.6f)\n", points[0].Latitude(), points[0].Longitude())
		if len(points) > 1 {
			last := points[len(points)-1]
			fmt.Fprintf(e.out, "  End: (%.6f, %.6f)\n", last.Latitude(), last.Longitude())
		}
	}
	if *verbose {
		fmt.Fprintf(e.out, "  All points:\n")
		for i, p := range points {
			fmt.Fprintf(e.out, "    %d: (%.6f, %.6f)\n", i+1, p.Latitude(), p.Longitude())
		}
	}
	return nil
}

func runMatrix(ctx context.Context, e *env, args []string) error {
	fs := e.flags("matrix")
	points := fs.String("points", "", "Points as a JSON array or encoded polyline")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *points == "" {
		return e.usage()
	}

	path, err := e.polyline(*points)
	if err != nil {
		return fmt.Errorf("invalid -points: %w", err)
	}
	cfg, err := e.resolved()
	if err != nil {
		return err
	}
	calc, err := cfg.NewCalculator()
	if err != nil {
		return err
	}

	locs := path.Locations()
	locators := make([]geo.Locator, len(locs))
	for i, l := range locs {
		locators[i] = l
	}

	matrix, err := batch.DistanceMatrix(ctx, calc, locators, cfg.Batch.Workers)
	if err != nil {
		logging.Errorw(ctx, "geocalc: distance matrix failed", "error", err, "points", len(locs))
		return err
	}
	logging.Infow(ctx, "geocalc: distance matrix computed", "points", len(locs), "workers", cfg.Batch.Workers)

	fmt.Fprintf(e.out, "Distance matrix (km), %s on %s:\n", calc.Kind(), calc.Ellipsoid())
	for i, row := range matrix {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprintf("%10.3f", v/1000)
		}
		fmt.Fprintf(e.out, "  %2d: %s\n", i+1, strings.Join(cells, " "))
	}
	return nil
}

func runGeoJSON(ctx context.Context, e *env, args []string) error {
	fs := e.flags("geojson")
	shape := fs.String("shape", "", "Shape to convert")
	asPolygon := fs.Bool("polygon", false, "Treat a point list as a polygon ring")
	hole := fs.String("hole", "", "Optional exclusion ring for -polygon")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *shape == "" {
		return e.usage()
	}

	var s geo.Shape
	var err error
	if *asPolygon {
		s, err = e.polygon(*shape, *hole)
	} else {
		s, err = e.shape(*shape, false)
	}
	if err != nil {
		return fmt.Errorf("invalid -shape: %w", err)
	}
	return e.printJSON(s)
}

// stringList collects a repeated string flag
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, " ") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func runKML(ctx context.Context, e *env, args []string) error {
	fs := e.flags("kml")
	name := fs.String("name", "geocalc", "Document name")
	var shapes, polygons stringList
	fs.Var(&shapes, "shape", "Shape to export, may be repeated")
	fs.Var(&polygons, "polygon", "Polygon ring to export, may be repeated")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(shapes) == 0 && len(polygons) == 0 {
		return e.usage()
	}

	var out []geo.Shape
	for _, in := range shapes {
		s, err := e.shape(in, false)
		if err != nil {
			return fmt.Errorf("invalid -shape: %w", err)
		}
		out = append(out, s)
	}
	for _, in := range polygons {
		p, err := e.polygon(in, "")
		if err != nil {
			return err
		}
		out = append(out, p)
	}
	return geo.WriteKML(e.out, *name, out...)
}

func runProximity(ctx context.Context, e *env, args []string) error {
	fs := e.flags("proximity")
	var paths, shapes stringList
	fs.Var(&paths, "path", "Reference path as a point list or encoded polyline, may be repeated")
	pathsKML := fs.String("paths-kml", "", "KML file whose LineString placemarks are reference paths")
	fs.Var(&shapes, "shape", "Shape to classify, may be repeated")
	onPath := fs.Float64("on-path", e.cfg.Proximity.OnPath, "Distance in meters under which a shape is on a path")
	maxDistance := fs.Float64("max-distance", e.cfg.Proximity.MaxDistance, "Distance in meters under which a shape is near a path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (len(paths) == 0 && *pathsKML == "") || len(shapes) == 0 {
		return e.usage()
	}

	var refs []proximity.Path
	for i, in := range paths {
		line, err := e.polyline(in)
		if err != nil {
			return fmt.Errorf("invalid -path: %w", err)
		}
		id := fmt.Sprintf("path-%d", i+1)
		refs = append(refs, proximity.Path{ID: id, Name: id, Polyline: line, MaxDistance: *maxDistance})
	}
	if *pathsKML != "" {
		placemarks, err := readKMLFile(*pathsKML)
		if err != nil {
			return err
		}
		for i, pm := range placemarks {
			line, ok := pm.Shape.(*geo.Polyline)
			if !ok {
				continue
			}
			id := fmt.Sprintf("kml-%d", i+1)
			name := pm.Name
			if name == "" {
				name = id
			}
			refs = append(refs, proximity.Path{ID: id, Name: name, Polyline: line, MaxDistance: *maxDistance})
		}
	}
	if len(refs) == 0 {
		return fmt.Errorf("%w: no reference paths", geo.ErrInvalidShape)
	}

	var targets []geo.Shape
	for _, in := range shapes {
		s, err := e.shape(in, false)
		if err != nil {
			return fmt.Errorf("invalid -shape: %w", err)
		}
		targets = append(targets, s)
	}

	cfg, err := e.resolved()
	if err != nil {
		return err
	}
	cfg.Proximity.OnPath = *onPath
	cfg.Proximity.MaxDistance = *maxDistance
	if err := cfg.Validate(); err != nil {
		return err
	}
	calc, err := cfg.NewCalculator()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	matcher := cfg.Matcher(calc)
	matcher.StartCacheCleanup(ctx, cfg.Cache.Cleanup)

	matches, err := matcher.ClassifyAll(ctx, targets, refs)
	if err != nil {
		logging.Errorw(ctx, "geocalc: proximity classification failed", "error", err, "shapes", len(targets))
		return err
	}
	if c := matcher.Cache(); c != nil {
		stats := c.Stats()
		logging.Infow(ctx, "geocalc: proximity classified", "shapes", len(targets), "paths", len(refs),
			"cache.entries", stats.TotalEntries, "cache.hits", stats.Hits)
	} else {
		logging.Infow(ctx, "geocalc: proximity classified", "shapes", len(targets), "paths", len(refs))
	}

	for i, m := range matches {
		fmt.Fprintf(e.out, "%d: %s %s", i+1, m.Shape.Kind(), m.Classification)
		if m.Distance != proximity.NoPath {
			fmt.Fprintf(e.out, " %.2f m", m.Distance)
		}
		if len(m.PathIDs) > 0 {
			fmt.Fprintf(e.out, " [%s]", strings.Join(m.PathIDs, ", "))
		}
		fmt.Fprintln(e.out)
	}
	return nil
}

func runKMLRead(ctx context.Context, e *env, args []string) error {
	fs := e.flags("kml-read")
	in := fs.String("in", "", "KML file to read")
	asGeoJSON := fs.Bool("geojson", false, "Print each placemark as a GeoJSON geometry")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return e.usage()
	}

	placemarks, err := readKMLFile(*in)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Placemarks: %d\n", len(placemarks))
	for i, pm := range placemarks {
		fmt.Fprintf(e.out, "%d: %s (%s, %d points)\n", i+1, pm.Name, pm.Shape.Kind(), len(pm.Shape.Locations()))
		if pm.Description != "" {
			fmt.Fprintf(e.out, "   %s\n", pm.Description)
		}
		if *asGeoJSON {
			if err := e.printJSON(pm.Shape); err != nil {
				return err
			}
		}
	}
	return nil
}

func readKMLFile(name string) ([]geo.Placemark, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open kml: %w", err)
	}
	defer f.Close()
	return geo.ReadKML(f)
}

// pair parses two locations and builds the calculator
func (e *env) pair(from, to string) (geo.Location, geo.Location, calculator.Calculator, error) {
	a, err := geo.ParseLocation(from)
	if err != nil {
		return geo.Location{}, geo.Location{}, nil, fmt.Errorf("invalid -from: %w", err)
	}
	b, err := geo.ParseLocation(to)
	if err != nil {
		return geo.Location{}, geo.Location{}, nil, fmt.Errorf("invalid -to: %w", err)
	}
	calc, err := e.calculator()
	if err != nil {
		return geo.Location{}, geo.Location{}, nil, err
	}
	return a, b, calc, nil
}

func (e *env) encoder() (*polyline.Encoder, error) {
	cfg, err := e.resolved()
	if err != nil {
		return nil, err
	}
	return cfg.Encoder()
}

// shape parses a GeoJSON geometry, a single location, or a point list in any form
// polyline.Factory accepts. With asPolygon a point list becomes a polygon ring.
func (e *env) shape(in string, asPolygon bool) (geo.Shape, error) {
	in = strings.TrimSpace(in)
	if strings.HasPrefix(in, "{") && strings.Contains(in, `"type"`) {
		return geo.ShapeFromGeoJSON([]byte(in))
	}
	if loc, err := geo.ParseLocation(in); err == nil {
		return loc, nil
	}
	line, err := e.polyline(in)
	if err != nil {
		return nil, err
	}
	if asPolygon {
		return geo.NewPolygon(line.Locations()...)
	}
	return line, nil
}

func (e *env) polyline(in string) (*geo.Polyline, error) {
	enc, err := e.encoder()
	if err != nil {
		return nil, err
	}
	return polyline.Factory{Encoder: enc}.Create(in)
}

// polygon parses a ring, either a GeoJSON polygon or a point list, and attaches
// the optional exclusion ring
func (e *env) polygon(ring, hole string) (*geo.Polygon, error) {
	p, err := e.ring(ring)
	if err != nil {
		return nil, fmt.Errorf("invalid -polygon: %w", err)
	}
	if hole == "" {
		return p, nil
	}
	h, err := e.ring(hole)
	if err != nil {
		return nil, fmt.Errorf("invalid -hole: %w", err)
	}
	if err := p.SetHole(h); err != nil {
		return nil, err
	}
	return p, nil
}

func (e *env) ring(in string) (*geo.Polygon, error) {
	s, err := e.shape(in, true)
	if err != nil {
		return nil, err
	}
	p, ok := s.(*geo.Polygon)
	if !ok {
		return nil, fmt.Errorf("%w: expected a polygon, got a %s", geo.ErrInvalidShape, s.Kind())
	}
	return p, nil
}

func (e *env) printJSON(s geo.Shape) error {
	data, err := json.MarshalIndent(s.GeoJSON(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal geojson: %w", err)
	}
	fmt.Fprintln(e.out, string(data))
	return nil
}
