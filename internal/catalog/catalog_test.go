package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"choromap/internal/geo"
	"choromap/internal/projection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usaStates = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"name":"California","state_code":"CA","electoralVotes":54},
  "geometry":{"type":"Polygon","coordinates":[[[-124,32],[-114,32],[-114,42],[-124,42],[-124,32]]]}},
 {"type":"Feature","properties":{"name":"Nevada","state_code":"NV","electoralVotes":6},
  "geometry":{"type":"Polygon","coordinates":[[[-120,35],[-114,35],[-114,42],[-120,42],[-120,35]]]}},
 {"type":"Feature","properties":{"name":"Nevada again","state_code":"NV"},
  "geometry":{"type":"Polygon","coordinates":[[[-120,35],[-114,35],[-114,42],[-120,42],[-120,35]]]}}
]}`

const districts = `{"type":"Topology","arcs":[[[0,0],[1,0],[1,1],[0,1],[0,0]]],
 "objects":{"d":{"type":"GeometryCollection","geometries":[{"type":"Polygon","id":"D1","arcs":[[0]]}]}}}`

func mapsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "usa-states.geojson"), []byte(usaStates), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "districts.topojson"), []byte(districts), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"type":"Unknown"}`), 0o644))
	return dir
}

func TestBuiltinMaps(t *testing.T) {
	maps := Builtin()
	require.Len(t, maps, 8)
	ids := map[string]projection.Name{}
	for _, m := range maps {
		ids[m.ID] = m.Projection
		_, err := projection.Parse(string(m.Projection))
		assert.NoError(t, err, m.ID)
	}
	assert.Equal(t, projection.AlbersUSA, ids["usa-states"])
	assert.Equal(t, projection.EqualEarth, ids["world-countries"])
	assert.Equal(t, projection.Albers, ids["north-america"])
	assert.Equal(t, projection.Mercator, ids["oceania"])
}

func TestListMarksAvailabilityAndDiscoversExtras(t *testing.T) {
	c := New(mapsDir(t), nil, time.Minute)
	avail := map[string]bool{}
	for _, e := range c.List() {
		avail[e.ID] = e.Available
	}
	assert.True(t, avail["usa-states"])
	assert.False(t, avail["world-countries"])
	assert.True(t, avail["districts"])
	assert.True(t, avail["broken"])
	_, ok := avail["notes"]
	assert.False(t, ok)

	m, ok := c.Get("districts")
	require.True(t, ok)
	assert.Equal(t, CategoryRegion, m.Category)
}

func TestLoadCachesNormalizedGeography(t *testing.T) {
	c := New(mapsDir(t), nil, time.Minute)
	first, err := c.Load(context.Background(), "usa-states")
	require.NoError(t, err)
	assert.Equal(t, "miss", first.Cache)
	assert.Equal(t, 2, first.Geography.Len())
	require.Len(t, first.Warnings, 1, "duplicate NV is reported")
	_, ok := first.Geography.Lookup("CA")
	assert.True(t, ok)

	second, err := c.Load(context.Background(), "usa-states")
	require.NoError(t, err)
	assert.Equal(t, "memory", second.Cache)
	assert.Same(t, first.Geography, second.Geography)
	assert.Equal(t, first.Warnings, second.Warnings)

	topo, err := c.Load(context.Background(), "districts")
	require.NoError(t, err)
	assert.Equal(t, geo.FormatTopoJSON, topo.Geography.Source)
}

func TestLoadErrors(t *testing.T) {
	c := New(mapsDir(t), nil, time.Minute)
	_, err := c.Load(context.Background(), "atlantis")
	assert.ErrorIs(t, err, ErrUnknownMap)

	_, err = c.Load(context.Background(), "world-countries")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = c.Load(context.Background(), "broken")
	var fe *geo.FormatError
	assert.True(t, errors.As(err, &fe))
}

func TestLRUEvictionAndExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewLRU(2, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", entry{})
	c.Set("b", entry{})
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Set("c", entry{})
	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used is evicted")
	assert.Equal(t, 2, c.Len())

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok, "expired")
	assert.Equal(t, 1, c.Len())
}
