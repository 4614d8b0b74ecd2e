package proximity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dpup/geocalc/internal/cache"
	"github.com/dpup/geocalc/internal/lib/batch"
	"github.com/dpup/geocalc/internal/lib/calculator"
	"github.com/dpup/geocalc/internal/lib/geo"
)

// DefaultOnPathThreshold is the distance in meters under which a shape is on a path
const DefaultOnPathThreshold = 100.0

// NoPath is the distance reported when there are no paths to measure against
const NoPath = math.MaxFloat64

// ErrInvalidPath is returned for a path without a polyline
var ErrInvalidPath = errors.New("path has no polyline")

var _ Matcher = (*PathMatcher)(nil)

// PathMatcher implements Matcher on top of a calculator
type PathMatcher struct {
	calc            calculator.Calculator
	onPathThreshold float64
	workers         int

	// vertex to path distances, keyed by path ID and vertex
	cache     *cache.Cache
	ttl       time.Duration
	namespace string

	geometryMu sync.Mutex
	geometry   map[string]string // path ID to the geometry its cached distances belong to
}

// Option configures a PathMatcher
type Option func(*PathMatcher)

// WithOnPathThreshold sets the on path distance in meters
func WithOnPathThreshold(meters float64) Option {
	return func(m *PathMatcher) {
		m.onPathThreshold = meters
	}
}

// WithWorkers bounds the goroutines used by ClassifyAll. Zero means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(m *PathMatcher) {
		m.workers = n
	}
}

// WithCache memoizes vertex to path distances in c for ttl. Shapes sharing
// vertices, and repeated classifications against the same paths, are measured once.
// Entries of a path are dropped when a path with the same ID and new geometry is seen.
func WithCache(c *cache.Cache, ttl time.Duration) Option {
	return func(m *PathMatcher) {
		m.cache = c
		m.ttl = ttl
	}
}

// NewMatcher returns a matcher measuring with calc
func NewMatcher(calc calculator.Calculator, opts ...Option) *PathMatcher {
	m := &PathMatcher{
		calc:            calc,
		onPathThreshold: DefaultOnPathThreshold,
		namespace:       fmt.Sprintf("%s/%s", calc.Kind(), calc.Ellipsoid()),
		geometry:        make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Cache returns the distance cache, nil when the matcher does not memoize
func (m *PathMatcher) Cache() *cache.Cache {
	return m.cache
}

// StartCacheCleanup removes expired distances every interval until ctx is done.
// It does nothing without a cache.
func (m *PathMatcher) StartCacheCleanup(ctx context.Context, interval time.Duration) {
	if m.cache == nil || interval <= 0 {
		return
	}
	m.cache.StartPeriodicCleanup(ctx, interval)
}

// OnPathThreshold returns the on path distance in meters
func (m *PathMatcher) OnPathThreshold() float64 {
	return m.onPathThreshold
}

// Classify measures s against every path. A shape matches a path when it comes
// within the path's MaxDistance; it is on path when the closest matching path is
// within the on path threshold.
func (m *PathMatcher) Classify(ctx context.Context, s geo.Shape, paths []Path) (Match, error) {
	if err := ctx.Err(); err != nil {
		return Match{}, err
	}

	match := Match{
		Shape:          s,
		Classification: Distant,
		PathIDs:        []string{},
		Distance:       NoPath,
	}
	closestMatched := NoPath

	for _, p := range paths {
		d, err := m.distanceToPath(s, p)
		if err != nil {
			return Match{}, fmt.Errorf("path %q: %w", p.ID, err)
		}
		match.Distance = math.Min(match.Distance, d)
		if d <= p.MaxDistance {
			match.PathIDs = append(match.PathIDs, p.ID)
			closestMatched = math.Min(closestMatched, d)
		}
	}

	switch {
	case len(match.PathIDs) == 0:
		match.Classification = Distant
	case closestMatched <= m.onPathThreshold:
		match.Classification = OnPath
	default:
		match.Classification = Nearby
	}
	return match, nil
}

// ClassifyAll classifies each shape as its own task and returns the matches in
// input order
func (m *PathMatcher) ClassifyAll(ctx context.Context, shapes []geo.Shape, paths []Path) ([]Match, error) {
	matches := make([]Match, len(shapes))
	err := batch.Each(ctx, len(shapes), m.workers, func(ctx context.Context, i int) error {
		match, err := m.Classify(ctx, shapes[i], paths)
		if err != nil {
			return fmt.Errorf("shape %d: %w", i, err)
		}
		matches[i] = match
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// Within returns the paths that pass within maxDistance meters of loc, in input order
func (m *PathMatcher) Within(ctx context.Context, loc geo.Location, paths []Path, maxDistance float64) ([]Path, error) {
	var within []Path
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := m.distanceToPath(loc, p)
		if err != nil {
			return nil, fmt.Errorf("path %q: %w", p.ID, err)
		}
		if d <= maxDistance {
			within = append(within, p)
		}
	}
	return within, nil
}

// distanceToPath is zero when the shape touches the path, otherwise the smallest
// distance from any of the shape's vertices.
func (m *PathMatcher) distanceToPath(s geo.Shape, p Path) (float64, error) {
	if p.Polyline == nil {
		return 0, ErrInvalidPath
	}
	if s == nil {
		return 0, fmt.Errorf("%w: nil shape", geo.ErrInvalidShape)
	}

	if s.Kind() != geo.KindPoint {
		touches, err := m.calc.Intersects(s, p.Polyline)
		if err != nil {
			return 0, err
		}
		if touches {
			return 0, nil
		}
	}

	if m.cache != nil {
		m.checkGeometry(p)
	}

	best := math.Inf(1)
	for _, loc := range s.Locations() {
		d, err := m.vertexDistance(loc, p)
		if err != nil {
			return 0, err
		}
		best = math.Min(best, d)
	}
	return best, nil
}

func (m *PathMatcher) vertexDistance(loc geo.Location, p Path) (float64, error) {
	if m.cache == nil {
		return m.calc.DistanceToPolyline(loc, p.Polyline)
	}

	key := m.pathPrefix(p.ID) + loc.String()
	var d float64
	if found, err := m.cache.Get(key, &d); err == nil && found {
		return d, nil
	}

	d, err := m.calc.DistanceToPolyline(loc, p.Polyline)
	if err != nil {
		return 0, err
	}
	if err := m.cache.Set(key, d, m.ttl, m.namespace); err != nil {
		return 0, err
	}
	return d, nil
}

// checkGeometry drops the cached distances of p.ID when its geometry changed
func (m *PathMatcher) checkGeometry(p Path) {
	geometry := fmt.Sprint(p.Polyline.Locations())

	m.geometryMu.Lock()
	defer m.geometryMu.Unlock()

	previous, seen := m.geometry[p.ID]
	if seen && previous == geometry {
		return
	}
	m.geometry[p.ID] = geometry
	if !seen {
		return
	}

	prefix := m.pathPrefix(p.ID)
	for _, key := range m.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			m.cache.Delete(key)
		}
	}
}

func (m *PathMatcher) pathPrefix(id string) string {
	return fmt.Sprintf("proximity:%s:%q:", m.namespace, id)
}

// ForPath returns the matches associated with pathID, on path matches first,
// then closest first.
func ForPath(matches []Match, pathID string) []Match {
	var out []Match
	for _, match := range matches {
		for _, id := range match.PathIDs {
			if id == pathID {
				out = append(out, match)
				break
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Classification != b.Classification {
			if a.Classification == OnPath {
				return true
			}
			if b.Classification == OnPath {
				return false
			}
		}
		return a.Distance < b.Distance
	})
	return out
}
