package geo

import (
	geojson "github.com/paulmach/go.geojson"
)

// 文档注释：规范形状回写为 GeoJSON 要素集合
// 背景：用于缓存与项目持久化；回写后再经 Normalize 可得到等价的 Geography（直接格式，无需拓扑解码）。
// 约束：规范字段 id/name/abbreviation/electoralVotes 覆盖同名原始属性。
func (g *Geography) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if g == nil {
		return fc
	}
	for i := range g.Regions {
		r := &g.Regions[i]
		f := geojson.NewFeature(encodeGeometry(r.Geometry))
		f.ID = r.ID
		for k, v := range r.Properties {
			f.Properties[k] = v
		}
		f.Properties["id"] = r.ID
		f.Properties["name"] = r.Name
		if r.Abbreviation != "" {
			f.Properties["abbreviation"] = r.Abbreviation
		}
		if r.Weight != nil {
			f.Properties["electoralVotes"] = *r.Weight
		}
		fc.AddFeature(f)
	}
	return fc
}

// MarshalJSON：Geography 对外序列化为 FeatureCollection
func (g *Geography) MarshalJSON() ([]byte, error) {
	return g.FeatureCollection().MarshalJSON()
}

func encodeGeometry(g Geometry) *geojson.Geometry {
	if g.Empty() {
		return nil
	}
	switch g.Kind {
	case KindPoint:
		if len(g.Points) == 1 {
			return geojson.NewPointGeometry(fromPoint(g.Points[0]))
		}
	case KindMultiPoint:
		return geojson.NewMultiPointGeometry(fromPoints(g.Points)...)
	case KindLineString:
		if len(g.Lines) == 1 {
			return geojson.NewLineStringGeometry(fromPoints(g.Lines[0]))
		}
	case KindMultiLineString:
		lines := make([][][]float64, 0, len(g.Lines))
		for _, l := range g.Lines {
			lines = append(lines, fromPoints(l))
		}
		return geojson.NewMultiLineStringGeometry(lines...)
	case KindPolygon:
		if len(g.Polygons) == 1 {
			return geojson.NewPolygonGeometry(fromPolygon(g.Polygons[0]))
		}
	case KindMultiPolygon:
		polys := make([][][][]float64, 0, len(g.Polygons))
		for _, p := range g.Polygons {
			polys = append(polys, fromPolygon(p))
		}
		return geojson.NewMultiPolygonGeometry(polys...)
	}
	// 集合或类型与内容不一致：按内容拆分为几何集合
	var subs []*geojson.Geometry
	for _, p := range g.Points {
		subs = append(subs, geojson.NewPointGeometry(fromPoint(p)))
	}
	for _, l := range g.Lines {
		subs = append(subs, geojson.NewLineStringGeometry(fromPoints(l)))
	}
	for _, p := range g.Polygons {
		subs = append(subs, geojson.NewPolygonGeometry(fromPolygon(p)))
	}
	return geojson.NewCollectionGeometry(subs...)
}

func fromPoint(p Point) []float64 { return []float64{p.Lon, p.Lat} }

func fromPoints(ps []Point) [][]float64 {
	out := make([][]float64, len(ps))
	for i, p := range ps {
		out[i] = fromPoint(p)
	}
	return out
}

func fromPolygon(p Polygon) [][][]float64 {
	out := make([][][]float64, len(p.Rings))
	for i, r := range p.Rings {
		out[i] = fromPoints(r)
	}
	return out
}
