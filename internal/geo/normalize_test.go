package geo

import (
	"errors"
	"testing"

	"choromap/internal/warn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoStates = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"state_code": "CA", "name": "California", "electoralVotes": 54},
     "geometry": {"type": "Polygon", "coordinates": [[[-124,32],[-114,32],[-114,42],[-124,42],[-124,32]]]}},
    {"type": "Feature", "properties": {"name": "Nevada"}, "id": 32,
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[-120,35],[-114,35],[-114,42],[-120,42],[-120,35]]]]}}
  ]
}`

func TestNormalizeFeatureCollection(t *testing.T) {
	g, ws, err := Normalize([]byte(twoStates))
	require.NoError(t, err)
	assert.Empty(t, ws)
	require.Equal(t, 2, g.Len())
	assert.Equal(t, FormatGeoJSON, g.Source)
	assert.Equal(t, CRSGeographic, g.CRS)

	ca, ok := g.Lookup("CA")
	require.True(t, ok)
	assert.Equal(t, "California", ca.Name)
	assert.Equal(t, "CA", ca.Abbreviation)
	require.NotNil(t, ca.Weight)
	assert.Equal(t, 54.0, *ca.Weight)
	assert.Equal(t, KindPolygon, ca.Geometry.Kind)

	nv, ok := g.Lookup("32")
	require.True(t, ok, "feature-level numeric id is used before name")
	assert.Equal(t, "Nevada", nv.Name)
	assert.Len(t, nv.Geometry.Polygons, 1)
	assert.Equal(t, [4]float64{-124, 32, -114, 42}, g.BBox)
}

func TestNormalizeBareFeatureIsWrapped(t *testing.T) {
	raw := `{"type":"Feature","properties":{"id":"X","name":"Only"},"geometry":{"type":"Point","coordinates":[1,2]}}`
	g, _, err := Normalize([]byte(raw))
	require.NoError(t, err)
	require.Equal(t, 1, g.Len())
	assert.Equal(t, "X", g.Regions[0].ID)
	assert.Equal(t, []Point{{Lon: 1, Lat: 2}}, g.Regions[0].Geometry.Points)
}

func TestNormalizeIdentifierPriority(t *testing.T) {
	cases := []struct {
		name  string
		props string
		want  string
	}{
		{"uk constituency code wins", `{"PCON24CD":"E14001","id":"x","name":"Bath"}`, "E14001"},
		{"generic id before name", `{"id":"x","name":"Bath"}`, "x"},
		{"name last", `{"name":"Bath"}`, "Bath"},
		{"blank alias skipped", `{"PCON24CD":"  ","EER13CD":"E15","name":"Bath"}`, "E15"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":` + tc.props + `,"geometry":null}]}`
			g, _, err := Normalize([]byte(raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, g.Regions[0].ID)
		})
	}
}

func TestNormalizeMissingIdentifier(t *testing.T) {
	raw := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","properties":{"id":"A"},"geometry":null},
	  {"type":"Feature","properties":{"pop":3},"geometry":null}]}`
	_, _, err := Normalize([]byte(raw))
	var me *MissingIdentifierError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, 1, me.Index)
}

func TestNormalizeDuplicateIDsFirstWins(t *testing.T) {
	raw := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","properties":{"id":"A","name":"first"},"geometry":null},
	  {"type":"Feature","properties":{"id":"B"},"geometry":null},
	  {"type":"Feature","properties":{"id":"A","name":"second"},"geometry":null}]}`
	g, ws, err := Normalize([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, g.IDs())
	a, _ := g.Lookup("A")
	assert.Equal(t, "first", a.Name)
	require.Len(t, ws, 1)
	assert.Equal(t, warn.JoinAmbiguity, ws[0].Kind)
	assert.Equal(t, 2, ws[0].Index)
}

func TestNormalizeRejectsUnknownFormats(t *testing.T) {
	for _, raw := range []string{
		`{"type":"Unknown"}`,
		`{"features":[]}`,
		`not json`,
		`{"type":"Topology","objects":{},"arcs":[]}`,
	} {
		_, _, err := Normalize([]byte(raw))
		var fe *FormatError
		assert.True(t, errors.As(err, &fe), raw)
	}
}

func TestNormalizeValue(t *testing.T) {
	v := map[string]any{
		"type": "FeatureCollection",
		"features": []any{
			map[string]any{"type": "Feature", "properties": map[string]any{"id": "A", "name": "Alpha"}, "geometry": nil},
		},
	}
	g, _, err := NormalizeValue(v)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, g.IDs())
}

func TestNormalizeIdentifiersUniqueAndNonEmpty(t *testing.T) {
	for _, raw := range []string{twoStates, sharedEdgeTopology, quantizedTopology} {
		g, _, err := Normalize([]byte(raw))
		require.NoError(t, err)
		seen := map[string]bool{}
		for _, r := range g.Regions {
			require.NotEmpty(t, r.ID)
			require.False(t, seen[r.ID], "duplicate id %s", r.ID)
			seen[r.ID] = true
		}
	}
}

func TestFeatureCollectionRoundTripKeepsCanonicalFields(t *testing.T) {
	g, _, err := Normalize([]byte(twoStates))
	require.NoError(t, err)
	b, err := g.MarshalJSON()
	require.NoError(t, err)
	g2, _, err := Normalize(b)
	require.NoError(t, err)
	assert.Equal(t, g.IDs(), g2.IDs())
	ca, _ := g2.Lookup("CA")
	require.NotNil(t, ca.Weight)
	assert.Equal(t, 54.0, *ca.Weight)
	assert.Equal(t, g.BBox, g2.BBox)
}
