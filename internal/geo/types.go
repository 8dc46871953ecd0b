package geo

import (
	"math"
	"time"
)

// 文档注释：规范化后的地理数据结构
// 背景：GeoJSON 与 TopoJSON 两种输入统一落到同一形状；下游连接、投影、渲染只读取这里的类型。
// 约束：坐标为经纬度（WGS84，度）；多边形第一环为外环，其余为洞；Geography 构建后只读。

// 点坐标（经度在前，与 GeoJSON 一致）
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Polygon：环集合，第一环是外环，其后为洞
type Polygon struct {
	Rings [][]Point
	BBox  [4]float64 // minLon, minLat, maxLon, maxLat
}

// GeometryKind：几何类型
type GeometryKind string

const (
	KindPoint           GeometryKind = "Point"
	KindMultiPoint      GeometryKind = "MultiPoint"
	KindLineString      GeometryKind = "LineString"
	KindMultiLineString GeometryKind = "MultiLineString"
	KindPolygon         GeometryKind = "Polygon"
	KindMultiPolygon    GeometryKind = "MultiPolygon"
	KindCollection      GeometryKind = "GeometryCollection"
	KindEmpty           GeometryKind = ""
)

// Geometry：多态几何；集合类型被展平到三个切片
type Geometry struct {
	Kind     GeometryKind
	Points   []Point
	Lines    [][]Point
	Polygons []Polygon
}

// Empty：没有任何坐标
func (g Geometry) Empty() bool {
	return len(g.Points) == 0 && len(g.Lines) == 0 && len(g.Polygons) == 0
}

// EachRing：依次访问所有线与环（点集作为单独一组）
func (g Geometry) EachRing(fn func(ring []Point, closed bool)) {
	if len(g.Points) > 0 {
		fn(g.Points, false)
	}
	for _, l := range g.Lines {
		fn(l, false)
	}
	for _, p := range g.Polygons {
		for _, r := range p.Rings {
			fn(r, true)
		}
	}
}

// BBox：几何包围盒；空几何返回 ok=false
func (g Geometry) BBox() ([4]float64, bool) {
	b := emptyBBox()
	n := 0
	g.EachRing(func(ring []Point, _ bool) {
		for _, pt := range ring {
			extend(&b, pt)
			n++
		}
	})
	return b, n > 0
}

// Region：一个地理单元（州、选区、国家）
type Region struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Abbreviation string         `json:"abbreviation,omitempty"`
	Weight       *float64       `json:"weight,omitempty"`
	Geometry     Geometry       `json:"-"`
	Properties   map[string]any `json:"properties,omitempty"`
}

// WeightValue：无权重时为 0
func (r *Region) WeightValue() float64 {
	if r.Weight == nil {
		return 0
	}
	return *r.Weight
}

// Format：输入格式
type Format string

const (
	FormatGeoJSON  Format = "geojson"
	FormatTopoJSON Format = "topojson"
)

// CRSGeographic：唯一支持的坐标参考
const CRSGeographic = "EPSG:4326"

// 文档注释：当前激活的地理数据快照
// 背景：整体替换，不做增量修补；index 在构建时生成，保证按 ID 查找为 O(1)。
type Geography struct {
	Regions  []Region
	CRS      string
	Source   Format
	BBox     [4]float64
	LoadedAt time.Time
	index    map[string]int
}

// NewGeography：按顺序构建，ID 重复时先到先得；返回被丢弃的下标
func NewGeography(regions []Region, source Format) (*Geography, []int) {
	g := &Geography{CRS: CRSGeographic, Source: source, BBox: emptyBBox(), LoadedAt: time.Now(), index: make(map[string]int, len(regions))}
	var dropped []int
	for i, r := range regions {
		if _, dup := g.index[r.ID]; dup {
			dropped = append(dropped, i)
			continue
		}
		g.index[r.ID] = len(g.Regions)
		g.Regions = append(g.Regions, r)
		if b, ok := r.Geometry.BBox(); ok {
			extend(&g.BBox, Point{Lon: b[0], Lat: b[1]})
			extend(&g.BBox, Point{Lon: b[2], Lat: b[3]})
		}
	}
	return g, dropped
}

// Lookup：按 ID 查找区域
func (g *Geography) Lookup(id string) (*Region, bool) {
	if g == nil {
		return nil, false
	}
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return &g.Regions[i], true
}

// IDs：按输入顺序返回全部区域 ID
func (g *Geography) IDs() []string {
	if g == nil {
		return nil
	}
	out := make([]string, len(g.Regions))
	for i := range g.Regions {
		out[i] = g.Regions[i].ID
	}
	return out
}

func (g *Geography) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Regions)
}

func emptyBBox() [4]float64 {
	return [4]float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
}

func extend(b *[4]float64, pt Point) {
	if pt.Lon < b[0] {
		b[0] = pt.Lon
	}
	if pt.Lat < b[1] {
		b[1] = pt.Lat
	}
	if pt.Lon > b[2] {
		b[2] = pt.Lon
	}
	if pt.Lat > b[3] {
		b[3] = pt.Lat
	}
}

func computeBBox(p Polygon) [4]float64 {
	b := emptyBBox()
	for _, r := range p.Rings {
		for _, pt := range r {
			extend(&b, pt)
		}
	}
	return b
}
