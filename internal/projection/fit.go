package projection

import (
	"errors"
	"math"

	"choromap/internal/geo"
)

var ErrInvalidSize = errors.New("projection: viewport size must be positive and larger than twice the padding")

// Size：视口像素尺寸
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// 边加密步长（度）
const densifyStep = 1.0

// 文档注释：拟合后的投影
// 背景：对全部顶点（边按 ≤1° 加密）做单位平面投影求包围盒，再按 k=min((w−2p)/dx,(h−2p)/dy) 缩放并居中。
// 约束：构建后只读；视图变换叠加在其上，从不修改它。重新拟合得到新实例。
//       包围盒退化（无可投影点，或只有一个点）时 k=1 并居中，Degenerate() 为 true。
type Fitted struct {
	name       Name
	raw        raw
	bounds     [4]float64
	hasBounds  bool
	k, tx, ty  float64
	size       Size
	padding    float64
	degenerate bool
}

// Fit：按名称构造投影并拟合到视口
func Fit(name Name, g *geo.Geography, size Size, padding float64) (*Fitted, error) {
	r, err := rawFor(name)
	if err != nil {
		return nil, err
	}
	b, ok := unitBounds(r, g)
	f := &Fitted{name: name, raw: r, bounds: b, hasBounds: ok}
	if err := f.fit(size, padding); err != nil {
		return nil, err
	}
	return f, nil
}

// WithSize：同一地理包围盒在新尺寸下重新拟合（导出任意分辨率）
func (f *Fitted) WithSize(size Size, padding float64) (*Fitted, error) {
	out := &Fitted{name: f.name, raw: f.raw, bounds: f.bounds, hasBounds: f.hasBounds}
	if err := out.fit(size, padding); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *Fitted) fit(size Size, padding float64) error {
	if padding < 0 || math.IsNaN(padding) {
		padding = 0
	}
	w, h := size.Width-2*padding, size.Height-2*padding
	if !(w > 0) || !(h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return ErrInvalidSize
	}
	f.size, f.padding = size, padding
	if !f.hasBounds {
		f.k, f.tx, f.ty, f.degenerate = 1, size.Width/2, size.Height/2, true
		return nil
	}
	x0, y0, x1, y1 := f.bounds[0], f.bounds[1], f.bounds[2], f.bounds[3]
	k := math.Min(ratio(w, x1-x0), ratio(h, y1-y0))
	if math.IsInf(k, 1) {
		k = 1
		f.degenerate = true
	}
	f.k = k
	f.tx = padding + (w-k*(x1+x0))/2
	f.ty = padding + (h-k*(y1+y0))/2
	return nil
}

func ratio(extent, span float64) float64 {
	if span <= 0 {
		return math.Inf(1)
	}
	return extent / span
}

func (f *Fitted) Name() Name { return f.name }
func (f *Fitted) Scale() float64 { return f.k }
func (f *Fitted) Size() Size { return f.size }
func (f *Fitted) Padding() float64 { return f.padding }
func (f *Fitted) Degenerate() bool { return f.degenerate }
func (f *Fitted) Translate() (x, y float64) { return f.tx, f.ty }

// Project：经纬度 → 拟合后的像素坐标；复合投影范围外返回 ok=false
func (f *Fitted) Project(lon, lat float64) (x, y float64, ok bool) {
	u, v, ok := f.raw.forward(lon, lat)
	if !ok {
		return 0, 0, false
	}
	return f.k*u + f.tx, f.k*v + f.ty, true
}

// Unproject：像素坐标 → 经纬度
func (f *Fitted) Unproject(x, y float64) (lon, lat float64, ok bool) {
	if f.k == 0 {
		return 0, 0, false
	}
	return f.raw.inverse((x-f.tx)/f.k, (y-f.ty)/f.k)
}

// 单位平面包围盒；无任何可投影点时 ok=false
func unitBounds(r raw, g *geo.Geography) ([4]float64, bool) {
	b := [4]float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	n := 0
	add := func(p geo.Point) {
		u, v, ok := r.forward(p.Lon, p.Lat)
		if !ok || math.IsNaN(u) || math.IsNaN(v) || math.IsInf(u, 0) || math.IsInf(v, 0) {
			return
		}
		b[0], b[1] = math.Min(b[0], u), math.Min(b[1], v)
		b[2], b[3] = math.Max(b[2], u), math.Max(b[3], v)
		n++
	}
	if g == nil {
		return b, false
	}
	for i := range g.Regions {
		gm := g.Regions[i].Geometry
		for _, p := range gm.Points {
			add(p)
		}
		for _, l := range gm.Lines {
			densify(l, false, add)
		}
		for _, poly := range gm.Polygons {
			for _, ring := range poly.Rings {
				densify(ring, true, add)
			}
		}
	}
	return b, n > 0
}

// densify：沿经纬度线性插值，保证相邻采样点间距不超过 densifyStep
func densify(ring []geo.Point, closed bool, fn func(geo.Point)) {
	if len(ring) == 0 {
		return
	}
	fn(ring[0])
	edge := func(a, b geo.Point) {
		d := math.Max(math.Abs(b.Lon-a.Lon), math.Abs(b.Lat-a.Lat))
		steps := int(math.Ceil(d / densifyStep))
		for s := 1; s < steps; s++ {
			t := float64(s) / float64(steps)
			fn(geo.Point{Lon: a.Lon + (b.Lon-a.Lon)*t, Lat: a.Lat + (b.Lat-a.Lat)*t})
		}
		fn(b)
	}
	for i := 1; i < len(ring); i++ {
		edge(ring[i-1], ring[i])
	}
	if closed && len(ring) > 1 {
		edge(ring[len(ring)-1], ring[0])
	}
}
