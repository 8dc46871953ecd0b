// 包 geo：边界数据规范化；GeoJSON/TopoJSON 统一转换为带稳定 ID 的区域集合
package geo

import (
	"encoding/json"
	"strconv"
	"strings"

	"choromap/internal/warn"

	geojson "github.com/paulmach/go.geojson"
)

// 文档注释：区域 ID 候选字段（按优先级）
// 背景：英国选区（PCON24CD/EER13CD）、美国州（GEOID/STATEFP/state_code）、Natural Earth 国家（ISO_A3/ADM0_A3）等来源字段名各异；先格式专有字段，再通用 id，最后 name。
// 约束：第一个非空值胜出；要素级 id 成员排在属性 id 之后、name 之前。
var idAliases = []string{"PCON24CD", "EER13CD", "GEOID", "STATEFP", "state_code", "ISO_A3", "iso_a3", "ADM0_A3", "id"}

var nameAliases = []string{"PCON24NM", "EER13NM", "NAME", "name", "NAME_EN", "ADMIN"}

var abbrevAliases = []string{"abbreviation", "state_code", "STUSPS", "postal", "ISO_A2"}

var weightAliases = []string{"electoralVotes", "electoral_votes", "weight", "seats"}

// Normalize：将原始 JSON 规范化为 Geography
// 背景：按 type 判别格式；Feature 与单要素拓扑对象包装为单元素集合，调用方永远拿到集合。
// 约束：纯函数，不修改任何状态；是否提交由调用方决定。
// 返回：warnings 仅包含重复 ID 的丢弃记录。
func Normalize(raw []byte) (*Geography, []warn.Warning, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, nil, formatErr("invalid json: %v", err)
	}
	var (
		features []*geojson.Feature
		source   Format
	)
	switch {
	case strings.EqualFold(probe.Type, "FeatureCollection"):
		fc, err := geojson.UnmarshalFeatureCollection(raw)
		if err != nil {
			return nil, nil, formatErr("feature collection: %v", err)
		}
		features, source = fc.Features, FormatGeoJSON
	case strings.EqualFold(probe.Type, "Feature"):
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			return nil, nil, formatErr("feature: %v", err)
		}
		features, source = []*geojson.Feature{f}, FormatGeoJSON
	case strings.EqualFold(probe.Type, "Topology"):
		fs, err := decodeTopology(raw)
		if err != nil {
			return nil, nil, err
		}
		features, source = fs, FormatTopoJSON
	case probe.Type == "":
		return nil, nil, formatErr("missing type discriminant")
	default:
		return nil, nil, formatErr("unsupported type %q", probe.Type)
	}
	return fromFeatures(features, source)
}

// NormalizeValue：输入已解码为 Go 值（map/切片）时使用
func NormalizeValue(v any) (*Geography, []warn.Warning, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, nil, formatErr("unencodable value: %v", err)
	}
	return Normalize(b)
}

func fromFeatures(features []*geojson.Feature, source Format) (*Geography, []warn.Warning, error) {
	regions := make([]Region, 0, len(features))
	for i, f := range features {
		if f == nil {
			return nil, nil, &MissingIdentifierError{Index: i}
		}
		id := featureID(f)
		if id == "" {
			return nil, nil, &MissingIdentifierError{Index: i}
		}
		props := f.Properties
		if props == nil {
			props = map[string]any{}
		}
		r := Region{
			ID:           id,
			Name:         firstString(props, nameAliases),
			Abbreviation: firstString(props, abbrevAliases),
			Weight:       firstNumber(props, weightAliases),
			Geometry:     convertGeometry(f.Geometry),
			Properties:   props,
		}
		if r.Name == "" {
			r.Name = id
		}
		regions = append(regions, r)
	}
	g, dropped := NewGeography(regions, source)
	var ws []warn.Warning
	for _, i := range dropped {
		ws = append(ws, warn.DuplicateRegion(regions[i].ID, i))
	}
	return g, ws, nil
}

func featureID(f *geojson.Feature) string {
	for _, k := range idAliases {
		if s := stringify(f.Properties[k]); s != "" {
			return s
		}
	}
	if s := stringify(f.ID); s != "" {
		return s
	}
	return stringify(f.Properties["name"])
}

func firstString(props map[string]any, keys []string) string {
	for _, k := range keys {
		if s := stringify(props[k]); s != "" {
			return s
		}
	}
	return ""
}

func firstNumber(props map[string]any, keys []string) *float64 {
	for _, k := range keys {
		switch x := props[k].(type) {
		case float64:
			v := x
			return &v
		case int:
			v := float64(x)
			return &v
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// stringify：ID 统一为不透明字符串；数字不带指数
func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	default:
		return ""
	}
}

func convertGeometry(g *geojson.Geometry) Geometry {
	var out Geometry
	if g == nil {
		return out
	}
	out.Kind = GeometryKind(g.Type)
	appendGeometry(&out, g)
	return out
}

func appendGeometry(out *Geometry, g *geojson.Geometry) {
	switch g.Type {
	case geojson.GeometryPoint:
		if len(g.Point) >= 2 {
			out.Points = append(out.Points, toPoint(g.Point))
		}
	case geojson.GeometryMultiPoint:
		out.Points = append(out.Points, toPoints(g.MultiPoint)...)
	case geojson.GeometryLineString:
		out.Lines = append(out.Lines, toPoints(g.LineString))
	case geojson.GeometryMultiLineString:
		for _, l := range g.MultiLineString {
			out.Lines = append(out.Lines, toPoints(l))
		}
	case geojson.GeometryPolygon:
		out.Polygons = append(out.Polygons, toPolygon(g.Polygon))
	case geojson.GeometryMultiPolygon:
		for _, p := range g.MultiPolygon {
			out.Polygons = append(out.Polygons, toPolygon(p))
		}
	case geojson.GeometryCollection:
		for _, sub := range g.Geometries {
			if sub != nil {
				appendGeometry(out, sub)
			}
		}
	}
}

func toPoint(c []float64) Point { return Point{Lon: c[0], Lat: c[1]} }

func toPoints(cs [][]float64) []Point {
	out := make([]Point, 0, len(cs))
	for _, c := range cs {
		if len(c) >= 2 {
			out = append(out, toPoint(c))
		}
	}
	return out
}

func toPolygon(rings [][][]float64) Polygon {
	var p Polygon
	for _, r := range rings {
		p.Rings = append(p.Rings, toPoints(r))
	}
	p.BBox = computeBBox(p)
	return p
}
