package proximity

import (
	"context"

	"github.com/dpup/geocalc/internal/lib/geo"
)

// Classification describes how close a shape lies to a set of reference paths
type Classification string

const (
	OnPath  Classification = "on_path" // within the matcher's on path threshold
	Nearby  Classification = "nearby"  // within a path's MaxDistance
	Distant Classification = "distant" // beyond every path's MaxDistance
)

// Path is a named reference polyline, such as a road or a flight track
type Path struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Polyline    *geo.Polyline `json:"polyline"`
	MaxDistance float64       `json:"max_distance"` // meters, the "nearby" radius
}

// Match is the result of classifying one shape
type Match struct {
	Shape          geo.Shape      `json:"shape"`
	Classification Classification `json:"classification"`
	PathIDs        []string       `json:"path_ids"`
	Distance       float64        `json:"distance"` // meters to the closest path
}

// Matcher classifies shapes against reference paths
type Matcher interface {
	// Classify a single shape against all paths
	Classify(ctx context.Context, s geo.Shape, paths []Path) (Match, error)

	// ClassifyAll classifies many shapes, one task per shape
	ClassifyAll(ctx context.Context, shapes []geo.Shape, paths []Path) ([]Match, error)

	// Within returns the paths that pass within maxDistance of loc
	Within(ctx context.Context, loc geo.Location, paths []Path, maxDistance float64) ([]Path, error)
}
