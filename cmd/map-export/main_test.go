package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const square = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"id":"A","name":"Alpha"},
  "geometry":{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}}]}`

func TestRunWritesSVGWithElection(t *testing.T) {
	dir := t.TempDir()
	geoPath := filepath.Join(dir, "a.geojson")
	elecPath := filepath.Join(dir, "e.json")
	require.NoError(t, os.WriteFile(geoPath, []byte(square), 0o644))
	require.NoError(t, os.WriteFile(elecPath, []byte(`{"candidates":[{"id":"1","name":"X","color":"#123456"}],"results":[{"regionId":"A","candidateId":"1","votes":5}]}`), 0o644))
	t.Setenv("EXPORT_GEO", geoPath)
	t.Setenv("EXPORT_ELECTION", elecPath)
	t.Setenv("EXPORT_WIDTH", "300")
	t.Setenv("EXPORT_HEIGHT", "200")

	out := filepath.Join(dir, "map.svg")
	require.NoError(t, run(out))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), `width="300"`)
	assert.Contains(t, string(b), `#123456`)
}

func TestRunRejectsMissingSourceAndBadExtension(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("EXPORT_GEO", "")
	t.Setenv("EXPORT_MAP", "")
	assert.Error(t, run(filepath.Join(dir, "x.png")))

	geoPath := filepath.Join(dir, "a.geojson")
	require.NoError(t, os.WriteFile(geoPath, []byte(square), 0o644))
	t.Setenv("EXPORT_GEO", geoPath)
	assert.Error(t, run(filepath.Join(dir, "x.gif")))
}
