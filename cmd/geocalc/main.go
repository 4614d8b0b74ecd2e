package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/debug"

	prefaberrors "github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"

	"github.com/dpup/geocalc/internal/config"
	"github.com/dpup/geocalc/internal/lib/calculator"
	"github.com/dpup/geocalc/internal/lib/ellipsoid"
)

// errUsage is returned when a command was called without its required flags
var errUsage = errors.New("missing required flags")

type command struct {
	name    string
	summary string
	example string
	run     func(ctx context.Context, env *env, args []string) error
}

var commands = []command{
	{"distance", "Geodesic distance between two points",
		`geocalc distance -from "38.0675,-120.5436" -to "38.1391,-120.4561"`, runDistance},
	{"bearing", "Initial, final and back bearing between two points",
		`geocalc bearing -from "-37.951033,144.424868" -to "-37.652818,143.926495"`, runBearing},
	{"destination", "Point reached from an origin along a bearing",
		`geocalc destination -from "-37.951033,144.424868" -bearing 306.86816 -distance 54972.271`, runDestination},
	{"perpendicular", "Distance from a point to a great circle or polyline",
		`geocalc perpendicular -point "1,5" -line "[[0,0],[10,0]]"`, runPerpendicular},
	{"simplify", "Douglas-Peucker and angular simplification",
		`geocalc simplify -shape "_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@" -precision 5 -max-distance 1000`, runSimplify},
	{"intersects", "Whether two shapes touch",
		`geocalc intersects -a "5,5" -b '{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}'`, runIntersects},
	{"contains", "Whether a polygon contains a point",
		`geocalc contains -polygon "[[0,0],[10,0],[10,10],[0,10]]" -point "5,5"`, runContains},
	{"area", "Approximate polygon area",
		`geocalc area -polygon "[[0,0],[1,0],[1,1],[0,1]]"`, runArea},
	{"encode", "Encode points as a polyline string",
		`geocalc encode -shape "[[-120.2,38.5],[-120.95,40.7],[-126.453,43.252]]" -precision 5`, runEncode},
	{"decode", "Decode a polyline string to points",
		`geocalc decode -polyline "_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@" -precision 5 -verbose`, runDecode},
	{"matrix", "Distance matrix between points, computed in parallel",
		`geocalc matrix -points '["51.5074,-0.1278","40.7128,-74.0060","-33.8688,151.2093"]'`, runMatrix},
	{"geojson", "Print a shape as a GeoJSON geometry",
		`geocalc geojson -shape "[[-120.2,38.5],[-120.95,40.7]]"`, runGeoJSON},
	{"kml", "Print shapes as a KML document",
		`geocalc kml -name route -shape "[[-120.2,38.5],[-120.95,40.7]]"`, runKML},
	{"kml-read", "List the placemarks of a KML file",
		`geocalc kml-read -in closures.kml -geojson`, runKMLRead},
	{"proximity", "Classify shapes as on, near or far from reference paths",
		`geocalc proximity -path "[[-120.5436,38.0675],[-120.4561,38.1391]]" -shape "38.08,-120.52"`, runProximity},
}

func main() {
	ctx := logging.EnsureLogger(context.Background())

	defer func() {
		if r := recover(); r != nil {
			err, _ := prefaberrors.ParseStack(debug.Stack())
			skipFrames := 3
			numFrames := 5
			logging.Errorw(ctx, "geocalc: recovered from panic",
				"error", r, "error.stack_trace", err.MinimalStack(skipFrames, numFrames))
			os.Exit(2)
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			os.Exit(1)
		}
		log.Fatalf("Error: %v", err)
	}
}

// run dispatches args[0] to its command
func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	ctx = logging.EnsureLogger(ctx)
	if len(args) < 1 {
		printUsage(out)
		return errUsage
	}

	name := args[0]
	if name == "help" || name == "-h" || name == "--help" {
		printUsage(out)
		return nil
	}

	for _, c := range commands {
		if c.name == name {
			return c.run(ctx, &env{cfg: cfg, out: out, example: c.example}, args[1:])
		}
	}

	fmt.Fprintf(out, "Unknown command: %s\n\n", name)
	printUsage(out)
	return errUsage
}

// env carries what every command needs: the configuration, overridden by the
// common flags, and the output stream
type env struct {
	cfg     *config.Config
	out     io.Writer
	example string

	solver     string
	ellipsoid  string
	allowed    float64
	iterations int
	precision  int
	workers    int
}

// flags returns a flag set carrying the common calculator flags
func (e *env) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.out)
	fs.StringVar(&e.solver, "solver", e.cfg.Calculator.Solver, "Solver: spherical or ellipsoidal")
	fs.StringVar(&e.ellipsoid, "ellipsoid", e.cfg.Calculator.Ellipsoid, "Reference ellipsoid: WGS_66, WGS_72, GRS_80 or WGS_84")
	fs.Float64Var(&e.allowed, "allowed", e.cfg.Calculator.Allowed, "Tolerance in meters for point comparisons")
	fs.IntVar(&e.iterations, "iterations", e.cfg.Calculator.Iterations, "Iteration cap of the ellipsoidal solver")
	fs.IntVar(&e.precision, "precision", e.cfg.Polyline.Precision, "Decimal places of encoded polylines")
	fs.IntVar(&e.workers, "workers", e.cfg.Batch.Workers, "Worker goroutines for batch commands, 0 for one per CPU")
	return fs
}

// resolved returns a copy of the configuration with the common flags applied
func (e *env) resolved() (*config.Config, error) {
	cfg := *e.cfg
	cfg.Calculator.Solver = e.solver
	cfg.Calculator.Ellipsoid = e.ellipsoid
	cfg.Calculator.Allowed = e.allowed
	cfg.Calculator.Iterations = e.iterations
	cfg.Polyline.Precision = e.precision
	cfg.Batch.Workers = e.workers
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (e *env) calculator() (calculator.Calculator, error) {
	cfg, err := e.resolved()
	if err != nil {
		return nil, err
	}
	return cfg.NewCalculator()
}

// usage prints the command's example and returns errUsage
func (e *env) usage() error {
	fmt.Fprintln(e.out, "Example usage:")
	fmt.Fprintf(e.out, "  %s\n", e.example)
	return errUsage
}

func printUsage(out io.Writer) {
	fmt.Fprintf(out, `geocalc - Geodesic and geometry calculator

USAGE:
    geocalc <command> [options]

COMMANDS:
`)
	for _, c := range commands {
		fmt.Fprintf(out, "    %-15s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(out, "    %-15s %s\n", "help", "Show this help message")

	fmt.Fprintf(out, "\nCOMMON OPTIONS:\n")
	fmt.Fprintf(out, "    -solver       spherical or ellipsoidal\n")
	fmt.Fprintf(out, "    -ellipsoid    one of")
	for _, e := range ellipsoid.All() {
		fmt.Fprintf(out, " %s", e)
	}
	fmt.Fprintf(out, "\n    -allowed      tolerance in meters\n")
	fmt.Fprintf(out, "    -iterations   ellipsoidal iteration cap\n")
	fmt.Fprintf(out, "    -precision    encoded polyline decimal places\n")
	fmt.Fprintf(out, "    -workers      batch worker goroutines\n")

	fmt.Fprintf(out, "\nEXAMPLES:\n")
	for _, c := range commands {
		fmt.Fprintf(out, "    %s\n", c.example)
	}
	fmt.Fprintf(out, "\nShapes are given as a point (\"52 12.345 N, 13 23.456 E\", \"[lon, lat]\"),\n"+
		"a JSON array of points, an encoded polyline or a GeoJSON geometry.\n"+
		"Defaults come from the geo section of prefab.yaml and PF__GEO__ variables.\n")
}
