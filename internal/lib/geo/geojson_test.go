package geo

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolygon_GeoJSONRoundTrip(t *testing.T) {
	outer, err := NewPolygon(square()...)
	require.NoError(t, err)
	hole, err := NewPolygon(NewLocation(2, 2), NewLocation(2, 8), NewLocation(8, 8))
	require.NoError(t, err)
	require.NoError(t, outer.SetHole(hole))

	data, err := json.Marshal(outer)
	require.NoError(t, err)

	var raw struct {
		Type        string        `json:"type"`
		BBox        []float64     `json:"bbox"`
		Coordinates [][][]float64 `json:"coordinates"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Polygon", raw.Type)
	assert.Equal(t, []float64{0, 0, 10, 10}, raw.BBox)
	require.Len(t, raw.Coordinates, 2)
	assert.Len(t, raw.Coordinates[0], 5, "outer ring is closed")
	assert.Equal(t, raw.Coordinates[0][0], raw.Coordinates[0][4])
	assert.Len(t, raw.Coordinates[1], 4, "hole ring is closed")

	shape, err := ShapeFromGeoJSON(data)
	require.NoError(t, err)
	require.Equal(t, KindPolygon, shape.Kind())
	decoded := shape.(*Polygon)
	assert.Equal(t, outer.Locations(), decoded.Locations())
	require.NotNil(t, decoded.Hole())
	assert.Equal(t, hole.Locations(), decoded.Hole().Locations())
}

func TestPolyline_GeoJSON(t *testing.T) {
	p, err := NewPolyline(NewLocation(38.5, -120.2), NewLocation(40.7, -120.95))
	require.NoError(t, err)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"LineString","bbox":[-120.95,38.5,-120.2,40.7],"coordinates":[[-120.2,38.5],[-120.95,40.7]]}`,
		string(data))

	shape, err := ShapeFromGeoJSON(data)
	require.NoError(t, err)
	assert.Equal(t, KindPolyline, shape.Kind())
	assert.Equal(t, p.Locations(), shape.Locations())

	line := NewLine(NewLocation(1, 2), NewLocation(3, 4))
	data, err = json.Marshal(line)
	require.NoError(t, err)
	shape, err = ShapeFromGeoJSON(data)
	require.NoError(t, err)
	assert.Equal(t, line.Locations(), shape.Locations())
}

func TestShapeFromGeoJSON(t *testing.T) {
	shape, err := ShapeFromGeoJSON([]byte(`{"type":"Point","coordinates":[13.4,52.2]}`))
	require.NoError(t, err)
	assert.Equal(t, NewLocation(52.2, 13.4), shape)

	_, err = ShapeFromGeoJSON([]byte(`{"type":"MultiPoint","coordinates":[[1,2],[3,4]]}`))
	assert.ErrorIs(t, err, ErrInvalidShape)

	_, err = ShapeFromGeoJSON([]byte(`{"type":"LineString","coordinates":[[1,2]]}`))
	assert.ErrorIs(t, err, ErrInvalidShape)

	_, err = ShapeFromGeoJSON([]byte(`{"type":"Polygon","coordinates":[[[0,0],[1,1],[0,0]]]}`))
	assert.ErrorIs(t, err, ErrInvalidShape)

	_, err = ShapeFromGeoJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestWriteKML(t *testing.T) {
	route, err := NewPolyline(NewLocation(38.5, -120.2), NewLocation(40.7, -120.95))
	require.NoError(t, err)
	area, err := NewPolygon(square()...)
	require.NoError(t, err)
	hole, err := NewPolygon(NewLocation(2, 2), NewLocation(2, 8), NewLocation(8, 8))
	require.NoError(t, err)
	require.NoError(t, area.SetHole(hole))

	var buf bytes.Buffer
	require.NoError(t, WriteKML(&buf, "export", NewLocation(1, 2), route, area))
	out := buf.String()

	assert.Contains(t, out, "<kml")
	assert.Contains(t, out, "<Document>")
	assert.Contains(t, out, "<name>export</name>")
	assert.Contains(t, out, "<name>export 1</name>")
	assert.Contains(t, out, "<name>export 3</name>")
	assert.Contains(t, out, "<Point>")
	assert.Contains(t, out, "<LineString>")
	assert.Contains(t, out, "<tessellate>")
	assert.Contains(t, out, "<outerBoundaryIs>")
	assert.Contains(t, out, "<innerBoundaryIs>")

	buf.Reset()
	require.NoError(t, WriteKML(&buf, "single", route))
	assert.Contains(t, buf.String(), "<name>single</name>")
	assert.NotContains(t, buf.String(), "single 1")
}
