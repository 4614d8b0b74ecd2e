// Package batch fans geodesic computations out over a bounded pool of
// goroutines. Each task is independent; the first failure cancels the rest.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"

	prefaberrors "github.com/dpup/prefab/errors"
	"golang.org/x/sync/errgroup"

	"github.com/dpup/geocalc/internal/lib/geo"
)

// ErrPanic wraps a panic raised inside a task
var ErrPanic = errors.New("batch task panicked")

// Distancer measures the distance in meters between two locations
type Distancer interface {
	Distance(a, b geo.Location) (float64, error)
}

// Intersector tests whether two shapes touch
type Intersector interface {
	Intersects(a, b geo.Shape) (bool, error)
}

// Pair is one intersection task
type Pair struct {
	A, B geo.Shape
}

// Each runs fn for every index in [0, n) on at most workers goroutines.
// workers <= 0 uses GOMAXPROCS. The first error, or a panic turned into
// ErrPanic, cancels the context passed to the remaining calls.
func Each(ctx context.Context, n, workers int, fn func(ctx context.Context, i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(poolSize(workers))

	for i := 0; i < n; i++ {
		g.Go(func() (err error) {
			defer recoverTask(&err)
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, i)
		})
	}
	return g.Wait()
}

// DistanceMatrix returns the symmetric matrix of distances between all points.
// Each row of the upper triangle is one task, mirrored into the lower triangle.
func DistanceMatrix(ctx context.Context, d Distancer, points []geo.Locator, workers int) ([][]float64, error) {
	locs := make([]geo.Location, len(points))
	for i, p := range points {
		locs[i] = p.GeoLocation()
	}

	matrix := make([][]float64, len(locs))
	for i := range matrix {
		matrix[i] = make([]float64, len(locs))
	}

	err := Each(ctx, len(locs), workers, func(ctx context.Context, i int) error {
		for j := i + 1; j < len(locs); j++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			dist, err := d.Distance(locs[i], locs[j])
			if err != nil {
				return fmt.Errorf("distance %s -> %s: %w", locs[i], locs[j], err)
			}
			matrix[i][j] = dist
			matrix[j][i] = dist
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matrix, nil
}

// IntersectAll tests every pair, one pair per task, and returns the results in
// input order
func IntersectAll(ctx context.Context, in Intersector, pairs []Pair, workers int) ([]bool, error) {
	results := make([]bool, len(pairs))

	err := Each(ctx, len(pairs), workers, func(ctx context.Context, i int) error {
		ok, err := in.Intersects(pairs[i].A, pairs[i].B)
		if err != nil {
			return fmt.Errorf("pair %d: %w", i, err)
		}
		results[i] = ok
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func poolSize(workers int) int {
	if workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return workers
}

// recoverTask turns a panic into an ErrPanic carrying a short stack trace
func recoverTask(err *error) {
	if r := recover(); r != nil {
		stack, _ := prefaberrors.ParseStack(debug.Stack())
		skipFrames := 3
		numFrames := 5
		*err = fmt.Errorf("%w: %v\n%v", ErrPanic, r, stack.MinimalStack(skipFrames, numFrames))
	}
}
