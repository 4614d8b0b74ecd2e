package geo

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square() []Location {
	return []Location{
		NewLocation(0, 0),
		NewLocation(0, 10),
		NewLocation(10, 10),
		NewLocation(10, 0),
	}
}

func TestShapes_MinimumCardinality(t *testing.T) {
	_, err := NewPolyline(NewLocation(1, 1))
	assert.ErrorIs(t, err, ErrInvalidShape)

	_, err = NewPolygon(NewLocation(1, 1), NewLocation(2, 2))
	assert.ErrorIs(t, err, ErrInvalidShape)

	p, err := NewPolyline(NewLocation(1, 1), NewLocation(2, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, p.Len())

	_, err = p.Remove(0)
	assert.ErrorIs(t, err, ErrInvalidShape)

	poly, err := NewPolygon(square()...)
	require.NoError(t, err)
	_, err = poly.Remove(3)
	require.NoError(t, err)
	_, err = poly.Remove(0)
	assert.ErrorIs(t, err, ErrInvalidShape)
	assert.Equal(t, 3, poly.Len())
}

func TestPolygon_ClosingPointDropped(t *testing.T) {
	closed := append(square(), square()[0])
	p, err := NewPolygon(closed...)
	require.NoError(t, err)
	assert.Equal(t, square(), p.Locations())

	_, err = NewPolygon(NewLocation(1, 1), NewLocation(2, 2), NewLocation(1, 1))
	assert.ErrorIs(t, err, ErrInvalidShape)
}

func TestPolyline_Mutation(t *testing.T) {
	p, err := NewPolyline(NewLocation(0, 0), NewLocation(1, 1))
	require.NoError(t, err)

	require.NoError(t, p.Append(NewLocation(2, 2)))
	require.NoError(t, p.Prepend(NewLocation(-1, -1)))
	require.NoError(t, p.Insert(2, NewLocation(0.5, 0.5)))
	require.NoError(t, p.Set(0, NewLocation(-2, -2)))

	assert.Equal(t, []Location{
		NewLocation(-2, -2),
		NewLocation(0, 0),
		NewLocation(0.5, 0.5),
		NewLocation(1, 1),
		NewLocation(2, 2),
	}, p.Locations())

	removed, err := p.Remove(2)
	require.NoError(t, err)
	assert.Equal(t, NewLocation(0.5, 0.5), removed)

	assert.Error(t, p.Set(10, NewLocation(0, 0)))
	assert.Error(t, p.Insert(-1, NewLocation(0, 0)))

	p.Reverse()
	assert.Equal(t, NewLocation(2, 2), p.At(0))
	assert.Equal(t, NewLocation(-2, -2), p.At(p.Len()-1))

	line := p.ToLine()
	assert.Equal(t, NewLocation(2, 2), line.Start())
	assert.Equal(t, NewLocation(-2, -2), line.End())
}

func TestShapes_BoundsCacheInvalidation(t *testing.T) {
	p, err := NewPolyline(NewLocation(0, 0), NewLocation(1, 1))
	require.NoError(t, err)

	var notified []Shape
	p.OnChange(func(s Shape) { notified = append(notified, s) })

	b := p.Bounds()
	assert.Equal(t, 1.0, b.North())
	assert.Equal(t, 0.0, b.South())

	require.NoError(t, p.Append(NewLocation(5, -3)))
	b = p.Bounds()
	assert.Equal(t, 5.0, b.North())
	assert.Equal(t, -3.0, b.West())
	assert.Equal(t, 1.0, b.East())

	require.Len(t, notified, 1)
	assert.Same(t, p, notified[0])

	// a rejected mutation leaves the shape untouched and silent
	assert.Error(t, p.Set(99, NewLocation(0, 0)))
	assert.Len(t, notified, 1)

	p.OnChange(nil)
	require.NoError(t, p.Append(NewLocation(6, 6)))
	assert.Len(t, notified, 1)
	assert.Equal(t, 6.0, p.Bounds().North())
}

func TestShapes_ConcurrentReaders(t *testing.T) {
	p, err := NewPolygon(square()...)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b := p.Bounds()
				assert.Equal(t, 10.0, b.North())
			}
		}()
	}
	wg.Wait()
}

func TestLine(t *testing.T) {
	l := NewLine(NewLocation(0, 0), NewLocation(10, 0))
	assert.Equal(t, KindLine, l.Kind())
	assert.Equal(t, 2, l.Len())

	var fired int
	l.OnChange(func(Shape) { fired++ })
	l.SetEnd(NewLocation(0, 10))
	assert.Equal(t, 1, fired)
	assert.Equal(t, 10.0, l.Bounds().East())

	r := l.Reverse()
	assert.Equal(t, l.End(), r.Start())
	assert.Equal(t, l.Start(), r.End())

	assert.Equal(t, Collinear, l.Orientation(NewLocation(0, 5)))
	assert.NotEqual(t, Collinear, l.Orientation(NewLocation(5, 5)))

	pl := l.ToPolyline()
	assert.Equal(t, l.Locations(), pl.Locations())

	length, err := l.Length(sphereMeasurer{})
	require.NoError(t, err)
	assert.InDelta(t, 1111950, length, 100)

	c := l.Clone()
	c.SetStart(NewLocation(1, 1))
	assert.Equal(t, NewLocation(0, 0), l.Start())
}

func TestPolygon_HoleChain(t *testing.T) {
	outer, err := NewPolygon(square()...)
	require.NoError(t, err)
	hole, err := NewPolygon(NewLocation(2, 2), NewLocation(2, 8), NewLocation(8, 8), NewLocation(8, 2))
	require.NoError(t, err)

	var fired int
	outer.OnChange(func(Shape) { fired++ })
	require.NoError(t, outer.SetHole(hole))
	assert.Equal(t, 1, fired)
	assert.Same(t, hole, outer.Hole())
	assert.Len(t, outer.Rings(), 2)

	assert.ErrorIs(t, hole.SetHole(outer), ErrInvalidShape)
	assert.ErrorIs(t, outer.SetHole(outer), ErrInvalidShape)

	clone := outer.Clone()
	require.NotNil(t, clone.Hole())
	assert.NotSame(t, hole, clone.Hole())
	assert.Equal(t, hole.Locations(), clone.Hole().Locations())

	perimeter, err := outer.Perimeter(sphereMeasurer{})
	require.NoError(t, err)
	// four edges of ten degrees, two on meridians and two on parallels 0 and 10
	assert.InDelta(t, 1111950*3+1111950*0.98481, perimeter, 2000)
}

func TestPolyline_Length(t *testing.T) {
	p, err := NewPolyline(NewLocation(0, 0), NewLocation(0, 1), NewLocation(0, 2))
	require.NoError(t, err)
	length, err := p.Length(sphereMeasurer{})
	require.NoError(t, err)
	assert.InDelta(t, 2*111195, length, 10)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "Point", KindPoint.String())
	assert.Equal(t, "Line", KindLine.String())
	assert.Equal(t, "Polyline", KindPolyline.String())
	assert.Equal(t, "Polygon", KindPolygon.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}
