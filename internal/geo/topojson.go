package geo

import (
	"encoding/json"
	"sort"
	"strings"

	geojson "github.com/paulmach/go.geojson"
)

// 文档注释：TopoJSON 解码（拓扑 → GeoJSON 要素）
// 背景：紧凑拓扑编码以共享弧段表达边界；量化坐标按 transform 差分还原；负数弧索引表示反向弧（~i）。
// 约束：只解码一个对象组；多个对象组时按键名排序取第一个，保证结果确定；不做拓扑修复。
type topology struct {
	Type      string                     `json:"type"`
	Transform *topoTransform             `json:"transform"`
	Objects   map[string]json.RawMessage `json:"objects"`
	Arcs      [][][]float64              `json:"arcs"`
}

type topoTransform struct {
	Scale     [2]float64 `json:"scale"`
	Translate [2]float64 `json:"translate"`
}

type topoObject struct {
	Type        string          `json:"type"`
	ID          any             `json:"id"`
	Properties  map[string]any  `json:"properties"`
	Arcs        json.RawMessage `json:"arcs"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometries  []topoObject    `json:"geometries"`
}

type topoDecoder struct {
	t    *topology
	arcs [][][]float64
}

func decodeTopology(raw []byte) ([]*geojson.Feature, error) {
	var t topology
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, formatErr("topology: %v", err)
	}
	if len(t.Objects) == 0 {
		return nil, formatErr("topology has no object groups")
	}
	keys := make([]string, 0, len(t.Objects))
	for k := range t.Objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var obj topoObject
	if err := json.Unmarshal(t.Objects[keys[0]], &obj); err != nil {
		return nil, formatErr("topology object %q: %v", keys[0], err)
	}
	d := &topoDecoder{t: &t, arcs: decodeArcs(&t)}
	if strings.EqualFold(obj.Type, "GeometryCollection") {
		out := make([]*geojson.Feature, 0, len(obj.Geometries))
		for i := range obj.Geometries {
			f, err := d.feature(&obj.Geometries[i])
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
		return out, nil
	}
	f, err := d.feature(&obj)
	if err != nil {
		return nil, err
	}
	return []*geojson.Feature{f}, nil
}

// 差分解码：每条弧从 0 重新累加，再乘 scale 加 translate
func decodeArcs(t *topology) [][][]float64 {
	out := make([][][]float64, len(t.Arcs))
	for i, arc := range t.Arcs {
		pts := make([][]float64, 0, len(arc))
		var x, y float64
		for _, p := range arc {
			if len(p) < 2 {
				continue
			}
			if t.Transform == nil {
				pts = append(pts, []float64{p[0], p[1]})
				continue
			}
			x += p[0]
			y += p[1]
			pts = append(pts, []float64{x*t.Transform.Scale[0] + t.Transform.Translate[0], y*t.Transform.Scale[1] + t.Transform.Translate[1]})
		}
		out[i] = pts
	}
	return out
}

func (d *topoDecoder) point(p []float64) []float64 {
	if len(p) < 2 {
		return nil
	}
	if d.t.Transform == nil {
		return []float64{p[0], p[1]}
	}
	return []float64{p[0]*d.t.Transform.Scale[0] + d.t.Transform.Translate[0], p[1]*d.t.Transform.Scale[1] + d.t.Transform.Translate[1]}
}

func (d *topoDecoder) feature(o *topoObject) (*geojson.Feature, error) {
	g, err := d.geometry(o)
	if err != nil {
		return nil, err
	}
	f := geojson.NewFeature(g)
	f.ID = o.ID
	if o.Properties != nil {
		f.Properties = o.Properties
	}
	return f, nil
}

func (d *topoDecoder) geometry(o *topoObject) (*geojson.Geometry, error) {
	switch o.Type {
	case "", "null":
		return nil, nil
	case "Point":
		var c []float64
		if err := json.Unmarshal(o.Coordinates, &c); err != nil {
			return nil, formatErr("topology point: %v", err)
		}
		return geojson.NewPointGeometry(d.point(c)), nil
	case "MultiPoint":
		var cs [][]float64
		if err := json.Unmarshal(o.Coordinates, &cs); err != nil {
			return nil, formatErr("topology multipoint: %v", err)
		}
		pts := make([][]float64, 0, len(cs))
		for _, c := range cs {
			if p := d.point(c); p != nil {
				pts = append(pts, p)
			}
		}
		return geojson.NewMultiPointGeometry(pts...), nil
	case "LineString":
		var idx []int
		if err := json.Unmarshal(o.Arcs, &idx); err != nil {
			return nil, formatErr("topology linestring arcs: %v", err)
		}
		l, err := d.line(idx)
		if err != nil {
			return nil, err
		}
		return geojson.NewLineStringGeometry(l), nil
	case "MultiLineString":
		var idx [][]int
		if err := json.Unmarshal(o.Arcs, &idx); err != nil {
			return nil, formatErr("topology multilinestring arcs: %v", err)
		}
		lines := make([][][]float64, 0, len(idx))
		for _, a := range idx {
			l, err := d.line(a)
			if err != nil {
				return nil, err
			}
			lines = append(lines, l)
		}
		return geojson.NewMultiLineStringGeometry(lines...), nil
	case "Polygon":
		var idx [][]int
		if err := json.Unmarshal(o.Arcs, &idx); err != nil {
			return nil, formatErr("topology polygon arcs: %v", err)
		}
		p, err := d.polygon(idx)
		if err != nil {
			return nil, err
		}
		return geojson.NewPolygonGeometry(p), nil
	case "MultiPolygon":
		var idx [][][]int
		if err := json.Unmarshal(o.Arcs, &idx); err != nil {
			return nil, formatErr("topology multipolygon arcs: %v", err)
		}
		polys := make([][][][]float64, 0, len(idx))
		for _, pa := range idx {
			p, err := d.polygon(pa)
			if err != nil {
				return nil, err
			}
			polys = append(polys, p)
		}
		return geojson.NewMultiPolygonGeometry(polys...), nil
	case "GeometryCollection":
		subs := make([]*geojson.Geometry, 0, len(o.Geometries))
		for i := range o.Geometries {
			g, err := d.geometry(&o.Geometries[i])
			if err != nil {
				return nil, err
			}
			if g != nil {
				subs = append(subs, g)
			}
		}
		return geojson.NewCollectionGeometry(subs...), nil
	default:
		return nil, formatErr("topology geometry type %q", o.Type)
	}
}

func (d *topoDecoder) polygon(idx [][]int) ([][][]float64, error) {
	rings := make([][][]float64, 0, len(idx))
	for _, a := range idx {
		r, err := d.line(a)
		if err != nil {
			return nil, err
		}
		for len(r) > 0 && len(r) < 4 {
			r = append(r, r[0])
		}
		rings = append(rings, r)
	}
	return rings, nil
}

// 拼接弧段：后一段的首点与前一段的尾点重合，去掉重复点
func (d *topoDecoder) line(idx []int) ([][]float64, error) {
	var pts [][]float64
	for _, i := range idx {
		j := i
		if i < 0 {
			j = ^i
		}
		if j < 0 || j >= len(d.arcs) {
			return nil, formatErr("topology arc index %d out of range", i)
		}
		if len(pts) > 0 {
			pts = pts[:len(pts)-1]
		}
		arc := d.arcs[j]
		start := len(pts)
		pts = append(pts, arc...)
		if i < 0 {
			for a, b := start, len(pts)-1; a < b; a, b = a+1, b-1 {
				pts[a], pts[b] = pts[b], pts[a]
			}
		}
	}
	if len(pts) == 1 {
		pts = append(pts, pts[0])
	}
	return pts, nil
}
