package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 两个相邻方块共享 x=1 的边；B 以反向弧引用共享边
const sharedEdgeTopology = `{
  "type": "Topology",
  "objects": {
    "wards": {"type": "GeometryCollection", "geometries": [
      {"type": "Polygon", "arcs": [[0, 1]], "id": "A", "properties": {"name": "Alpha"}},
      {"type": "Polygon", "arcs": [[2, -2]], "properties": {"PCON24CD": "B", "PCON24NM": "Beta"}}
    ]}
  },
  "arcs": [
    [[1,1],[0,1],[0,0],[1,0]],
    [[1,0],[1,1]],
    [[1,0],[2,0],[2,1],[1,1]]
  ]
}`

const quantizedTopology = `{
  "type": "Topology",
  "transform": {"scale": [0.5, 0.5], "translate": [10, 20]},
  "objects": {"only": {"type": "Polygon", "arcs": [[0]], "properties": {"id": "Q"}}},
  "arcs": [[[0,0],[2,0],[0,2],[-2,0],[0,-2]]]
}`

func TestTopologySharedArcs(t *testing.T) {
	g, ws, err := Normalize([]byte(sharedEdgeTopology))
	require.NoError(t, err)
	assert.Empty(t, ws)
	assert.Equal(t, FormatTopoJSON, g.Source)
	require.Equal(t, []string{"A", "B"}, g.IDs())

	a, _ := g.Lookup("A")
	assert.Equal(t, "Alpha", a.Name)
	assert.Equal(t, []Point{{1, 1}, {0, 1}, {0, 0}, {1, 0}, {1, 1}}, a.Geometry.Polygons[0].Rings[0])

	b, _ := g.Lookup("B")
	assert.Equal(t, "Beta", b.Name)
	assert.Equal(t, []Point{{1, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 0}}, b.Geometry.Polygons[0].Rings[0])
}

func TestTopologySingleObjectIsWrapped(t *testing.T) {
	g, _, err := Normalize([]byte(quantizedTopology))
	require.NoError(t, err)
	require.Equal(t, 1, g.Len())
	q := g.Regions[0]
	assert.Equal(t, "Q", q.ID)
	assert.Equal(t, []Point{{10, 20}, {11, 20}, {11, 21}, {10, 21}, {10, 20}}, q.Geometry.Polygons[0].Rings[0])
}

func TestTopologyPicksFirstObjectGroupByName(t *testing.T) {
	raw := `{"type":"Topology","objects":{
	  "zeta":{"type":"Point","coordinates":[5,5],"properties":{"id":"Z"}},
	  "alpha":{"type":"Point","coordinates":[1,1],"properties":{"id":"P"}}},"arcs":[]}`
	g, _, err := Normalize([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, []string{"P"}, g.IDs())
}

func TestTopologyBadArcIndex(t *testing.T) {
	raw := `{"type":"Topology","objects":{"x":{"type":"LineString","arcs":[4],"properties":{"id":"L"}}},"arcs":[[[0,0],[1,1]]]}`
	_, _, err := Normalize([]byte(raw))
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestHitTest(t *testing.T) {
	g, _, err := Normalize([]byte(sharedEdgeTopology))
	require.NoError(t, err)
	id, ok := g.HitTest(0.5, 0.5)
	require.True(t, ok)
	assert.Equal(t, "A", id)
	id, ok = g.HitTest(1.5, 0.25)
	require.True(t, ok)
	assert.Equal(t, "B", id)
	_, ok = g.HitTest(5, 5)
	assert.False(t, ok)
}

func TestHitTestRespectsHoles(t *testing.T) {
	raw := `{"type":"Feature","properties":{"id":"donut"},"geometry":{"type":"Polygon","coordinates":[
	  [[0,0],[10,0],[10,10],[0,10],[0,0]],
	  [[4,4],[6,4],[6,6],[4,6],[4,4]]]}}`
	g, _, err := Normalize([]byte(raw))
	require.NoError(t, err)
	_, ok := g.HitTest(5, 5)
	assert.False(t, ok)
	_, ok = g.HitTest(2, 2)
	assert.True(t, ok)
}

func TestRepresentativePoint(t *testing.T) {
	g, _, err := Normalize([]byte(twoStates))
	require.NoError(t, err)
	ca, _ := g.Lookup("CA")
	p, ok := ca.RepresentativePoint()
	require.True(t, ok)
	assert.InDelta(t, -119, p.Lon, 1e-9)
	assert.InDelta(t, 37, p.Lat, 1e-9)

	empty := Region{ID: "e"}
	_, ok = empty.RepresentativePoint()
	assert.False(t, ok)
}
