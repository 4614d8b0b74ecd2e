package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/geocalc/internal/config"
	"github.com/dpup/geocalc/internal/lib/polyline"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), config.DefaultConfig(), args, &out)
	return out.String(), err
}

func TestRun_Usage(t *testing.T) {
	out, err := execute(t)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, out, "USAGE:")

	out, err = execute(t, "help")
	require.NoError(t, err)
	for _, c := range commands {
		assert.Contains(t, out, c.name)
	}

	out, err = execute(t, "teleport")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, out, "Unknown command: teleport")

	out, err = execute(t, "distance")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, out, "Example usage:")
}

func TestRun_Distance(t *testing.T) {
	out, err := execute(t, "distance", "-from", "-37.951033,144.424868", "-to", "-37.652818,143.926495")
	require.NoError(t, err)
	assert.Contains(t, out, "ellipsoidal on WGS_84")
	assert.Contains(t, out, "Distance: 54972.")

	out, err = execute(t, "distance", "-solver", "spherical", "-from", "0,0", "-to", "0,1")
	require.NoError(t, err)
	assert.Contains(t, out, "111195.08")

	_, err = execute(t, "distance", "-from", "nowhere", "-to", "0,1")
	assert.ErrorContains(t, err, "invalid -from")

	_, err = execute(t, "distance", "-solver", "flat", "-from", "0,0", "-to", "0,1")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRun_Bearing(t *testing.T) {
	out, err := execute(t, "bearing", "-from", "0,0", "-to", "0,1")
	require.NoError(t, err)
	assert.Contains(t, out, "Initial: 90.00000°")
	assert.Contains(t, out, "Final: 90.00000°")
	assert.Contains(t, out, "Back: 270.00000°")
}

func TestRun_Destination(t *testing.T) {
	out, err := execute(t, "destination", "-solver", "spherical", "-from", "0,179.5", "-bearing", "90", "-distance", "111195.08")
	require.NoError(t, err)
	assert.Contains(t, out, "Destination: (0.00000000, -179.50000")
}

func TestRun_Perpendicular(t *testing.T) {
	out, err := execute(t, "perpendicular", "-solver", "spherical", "-point", "1,5", "-line", "[[0,0],[10,0]]")
	require.NoError(t, err)
	assert.Contains(t, out, "Great circle: 111195.")
	assert.Contains(t, out, "Within tolerance: false")
}

func TestRun_Simplify(t *testing.T) {
	out, err := execute(t, "simplify", "-solver", "spherical",
		"-shape", "[[0,0],[1,0.00001],[2,0],[3,0.5],[4,0]]", "-max-distance", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "Simplified Polyline: 5 -> 4 points")
	assert.Contains(t, out, `"type": "LineString"`)

	out, err = execute(t, "simplify", "-polygon", "-shape", "[[0,0],[5,0],[10,0],[10,10],[0,10]]", "-min-angle", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Simplified Polygon: 5 -> 4 points")
}

func TestRun_IntersectsContainsArea(t *testing.T) {
	square := `{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}`

	out, err := execute(t, "intersects", "-a", "5,5", "-b", square)
	require.NoError(t, err)
	assert.Contains(t, out, "Intersects: true")

	out, err = execute(t, "intersects", "-a", "[[-5,5],[5,5]]", "-b", "[[0,20],[10,20],[10,30]]", "-b-polygon")
	require.NoError(t, err)
	assert.Contains(t, out, "Intersects: false")

	out, err = execute(t, "contains", "-polygon", "[[0,0],[10,0],[10,10],[0,10]]",
		"-hole", "[[2,2],[8,2],[8,8],[2,8]]", "-point", "5,5")
	require.NoError(t, err)
	assert.Contains(t, out, "Polygon: 2 rings")
	assert.Contains(t, out, "Contains: false")

	out, err = execute(t, "area", "-polygon", "[[0,0],[1,0],[1,1],[0,1]]")
	require.NoError(t, err)
	assert.Contains(t, out, "Area: 1236")

	_, err = execute(t, "area", "-polygon", "5,5")
	assert.ErrorContains(t, err, "expected a polygon")
}

func TestRun_EncodeDecode(t *testing.T) {
	out, err := execute(t, "encode", "-precision", "5", "-shape", "[[-120.2,38.5],[-120.95,40.7],[-126.453,43.252]]")
	require.NoError(t, err)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", strings.TrimSpace(out))

	out, err = execute(t, "decode", "-precision", "5", "-verbose", "-polyline", "_p~iF~ps|U_ulLnnqC_mqNvxq`@")
	require.NoError(t, err)
	assert.Contains(t, out, "Points: 3")
	assert.Contains(t, out, "3: (43.252000, -126.453000)")

	_, err = execute(t, "decode", "-polyline", "abc!")
	assert.ErrorIs(t, err, polyline.ErrInvalidEncoding)
}

func TestRun_Matrix(t *testing.T) {
	out, err := execute(t, "matrix", "-solver", "spherical", "-workers", "2", "-points", `["0,0","0,1","0,1"]`)
	require.NoError(t, err)
	assert.Contains(t, out, "Distance matrix (km), spherical on WGS_84")
	assert.Contains(t, out, "111.195")
	assert.Equal(t, 4, strings.Count(out, "\n"))
}

func TestRun_GeoJSONAndKML(t *testing.T) {
	out, err := execute(t, "geojson", "-shape", "[[-120.2,38.5],[-120.95,40.7]]")
	require.NoError(t, err)
	assert.Contains(t, out, `"type": "LineString"`)
	assert.Contains(t, out, `"bbox"`)

	out, err = execute(t, "geojson", "-polygon", "-shape", "[[0,0],[10,0],[10,10]]")
	require.NoError(t, err)
	assert.Contains(t, out, `"type": "Polygon"`)

	out, err = execute(t, "kml", "-name", "route", "-shape", "[[-120.2,38.5],[-120.95,40.7]]", "-shape", "38.5,-120.2",
		"-polygon", "[[0,0],[10,0],[10,10]]")
	require.NoError(t, err)
	assert.Contains(t, out, "<name>route 1</name>")
	assert.Contains(t, out, "<LineString>")
	assert.Contains(t, out, "<Point>")
	assert.Contains(t, out, "<Polygon>")
}

func TestRun_Proximity(t *testing.T) {
	hwy4 := "[[-120.5436,38.0675],[-120.4561,38.1391]]"

	out, err := execute(t, "proximity", "-path", hwy4,
		"-shape", "38.0675,-120.5436", "-shape", "38.08,-120.52", "-shape", "37.5,-121")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "1: Point on_path 0.00 m [path-1]"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "2: Point nearby "), lines[1])
	assert.Contains(t, lines[1], "[path-1]")
	assert.True(t, strings.HasPrefix(lines[2], "3: Point distant "), lines[2])

	out, err = execute(t, "proximity", "-path", hwy4, "-on-path", "2000", "-shape", "38.08,-120.52")
	require.NoError(t, err)
	assert.Contains(t, out, "1: Point on_path")

	_, err = execute(t, "proximity", "-path", hwy4)
	assert.ErrorIs(t, err, errUsage)

	_, err = execute(t, "proximity", "-path", hwy4, "-on-path", "500", "-max-distance", "100", "-shape", "0,0")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRun_KMLRead(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "shapes.kml")

	var doc bytes.Buffer
	err := run(context.Background(), config.DefaultConfig(),
		[]string{"kml", "-name", "hwy4", "-shape", "[[-120.5436,38.0675],[-120.4561,38.1391]]", "-shape", "38.0675,-120.5436"}, &doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, doc.Bytes(), 0o600))

	out, err := execute(t, "kml-read", "-in", file, "-geojson")
	require.NoError(t, err)
	assert.Contains(t, out, "Placemarks: 2")
	assert.Contains(t, out, "1: hwy4 1 (Polyline, 2 points)")
	assert.Contains(t, out, "2: hwy4 2 (Point, 1 points)")
	assert.Contains(t, out, `"type": "LineString"`)

	out, err = execute(t, "proximity", "-paths-kml", file, "-shape", "38.08,-120.52")
	require.NoError(t, err)
	assert.Contains(t, out, "1: Point nearby")
	assert.Contains(t, out, "[kml-1]")

	_, err = execute(t, "kml-read", "-in", filepath.Join(dir, "missing.kml"))
	assert.ErrorContains(t, err, "failed to open kml")
}
