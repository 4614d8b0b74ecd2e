package geo

import (
	"errors"
	"fmt"
	"sync"

	geojson "github.com/paulmach/go.geojson"
	"github.com/twpayne/go-kml"
)

// ErrInvalidShape is returned when a shape would violate its point count invariant
var ErrInvalidShape = errors.New("invalid shape")

// Kind identifies the concrete type behind a Shape
type Kind int

const (
	KindPoint Kind = iota
	KindLine
	KindPolyline
	KindPolygon
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "Point"
	case KindLine:
		return "Line"
	case KindPolyline:
		return "Polyline"
	case KindPolygon:
		return "Polygon"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Shape is the closed set of geometries the calculators operate on:
// Location, *Line, *Polyline and *Polygon.
type Shape interface {
	Kind() Kind
	// Locations returns a copy of the ordered points
	Locations() []Location
	Bounds() Bounds
	GeoJSON() *geojson.Geometry
	KML(name string) *kml.CompoundElement
	sealed()
}

// Measurer is the part of a calculator the data model needs for derived values
type Measurer interface {
	Distance(a, b Location) (float64, error)
	Destination(origin Location, bearing, distance float64) (Location, error)
}

// path is the ordered point storage shared by lines, polylines and polygons.
// The bounds are cached and recomputed on the first read after a mutation.
type path struct {
	mu     sync.RWMutex
	points []Location
	min    int
	max    int // 0 means unbounded
	bounds Bounds
	dirty  bool
	notify func()
}

func (p *path) init(kind Kind, min, max int, locs []Location) error {
	if len(locs) < min || (max > 0 && len(locs) > max) {
		return fmt.Errorf("%w: %s needs at least %d points, got %d", ErrInvalidShape, kind, min, len(locs))
	}
	p.points = make([]Location, len(locs))
	copy(p.points, locs)
	p.min, p.max, p.dirty = min, max, true
	return nil
}

func (p *path) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.points)
}

// At returns the point at index i; it panics when i is out of range
func (p *path) At(i int) Location {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.points[i]
}

func (p *path) Locations() []Location {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Location, len(p.points))
	copy(out, p.points)
	return out
}

func (p *path) Bounds() Bounds {
	p.mu.RLock()
	if !p.dirty {
		b := p.bounds
		p.mu.RUnlock()
		return b
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dirty {
		p.bounds = BoundsOf(p.points...)
		p.dirty = false
	}
	return p.bounds
}

// mutate applies fn under the write lock, marks the bounds dirty and fires the
// change hook once the lock is released.
func (p *path) mutate(fn func() error) error {
	p.mu.Lock()
	if err := fn(); err != nil {
		p.mu.Unlock()
		return err
	}
	p.dirty = true
	notify := p.notify
	p.mu.Unlock()

	if notify != nil {
		notify()
	}
	return nil
}

func (p *path) set(i int, l Location) error {
	return p.mutate(func() error {
		if i < 0 || i >= len(p.points) {
			return fmt.Errorf("index %d out of range [0, %d)", i, len(p.points))
		}
		p.points[i] = l
		return nil
	})
}

func (p *path) append(locs ...Location) error {
	return p.mutate(func() error {
		if p.max > 0 && len(p.points)+len(locs) > p.max {
			return fmt.Errorf("%w: at most %d points", ErrInvalidShape, p.max)
		}
		p.points = append(p.points, locs...)
		return nil
	})
}

func (p *path) prepend(locs ...Location) error {
	return p.mutate(func() error {
		if p.max > 0 && len(p.points)+len(locs) > p.max {
			return fmt.Errorf("%w: at most %d points", ErrInvalidShape, p.max)
		}
		points := make([]Location, 0, len(p.points)+len(locs))
		points = append(points, locs...)
		p.points = append(points, p.points...)
		return nil
	})
}

func (p *path) insert(i int, l Location) error {
	return p.mutate(func() error {
		if i < 0 || i > len(p.points) {
			return fmt.Errorf("index %d out of range [0, %d]", i, len(p.points))
		}
		if p.max > 0 && len(p.points) >= p.max {
			return fmt.Errorf("%w: at most %d points", ErrInvalidShape, p.max)
		}
		p.points = append(p.points, Location{})
		copy(p.points[i+1:], p.points[i:])
		p.points[i] = l
		return nil
	})
}

func (p *path) remove(i int) (Location, error) {
	var removed Location
	err := p.mutate(func() error {
		if i < 0 || i >= len(p.points) {
			return fmt.Errorf("index %d out of range [0, %d)", i, len(p.points))
		}
		if len(p.points) <= p.min {
			return fmt.Errorf("%w: cannot drop below %d points", ErrInvalidShape, p.min)
		}
		removed = p.points[i]
		p.points = append(p.points[:i], p.points[i+1:]...)
		return nil
	})
	return removed, err
}

func (p *path) reverse() {
	_ = p.mutate(func() error {
		for i, j := 0, len(p.points)-1; i < j; i, j = i+1, j-1 {
			p.points[i], p.points[j] = p.points[j], p.points[i]
		}
		return nil
	})
}

func (p *path) setNotify(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notify = fn
}

// length sums the distances between consecutive points, closing the ring when asked
func (p *path) length(m Measurer, closed bool) (float64, error) {
	points := p.Locations()
	var total float64
	for i := 1; i < len(points); i++ {
		d, err := m.Distance(points[i-1], points[i])
		if err != nil {
			return 0, err
		}
		total += d
	}
	if closed && len(points) > 2 {
		d, err := m.Distance(points[len(points)-1], points[0])
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

func coordinates(locs []Location) [][]float64 {
	out := make([][]float64, len(locs))
	for i, l := range locs {
		out[i] = l.coordinate()
	}
	return out
}

func kmlCoordinates(locs []Location) []kml.Coordinate {
	out := make([]kml.Coordinate, len(locs))
	for i, l := range locs {
		out[i] = l.kmlCoordinate()
	}
	return out
}
