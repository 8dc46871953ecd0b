package geo

import "math"

// RepresentativePoint：区域的标注点
// 背景：取面积最大外环的面积加权质心；退化环（面积为 0）退回顶点均值；无面时取首个点或首条线的顶点均值。
// 约束：空几何返回 ok=false。
func (r *Region) RepresentativePoint() (Point, bool) {
	g := r.Geometry
	best := -1.0
	var ring []Point
	for _, p := range g.Polygons {
		if len(p.Rings) == 0 {
			continue
		}
		a := math.Abs(ringArea(p.Rings[0]))
		if a > best {
			best = a
			ring = p.Rings[0]
		}
	}
	if ring != nil {
		if c, ok := ringCentroid(ring); ok {
			return c, true
		}
		return vertexMean(ring)
	}
	if len(g.Points) > 0 {
		return g.Points[0], true
	}
	if len(g.Lines) > 0 {
		return vertexMean(g.Lines[0])
	}
	return Point{}, false
}

// 平面（经纬度）有向面积，鞋带公式
func ringArea(ring []Point) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	var s float64
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		s += ring[j].Lon*ring[i].Lat - ring[i].Lon*ring[j].Lat
	}
	return s / 2
}

func ringCentroid(ring []Point) (Point, bool) {
	a := ringArea(ring)
	if math.Abs(a) < 1e-12 {
		return Point{}, false
	}
	var cx, cy float64
	n := len(ring)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		f := ring[j].Lon*ring[i].Lat - ring[i].Lon*ring[j].Lat
		cx += (ring[j].Lon + ring[i].Lon) * f
		cy += (ring[j].Lat + ring[i].Lat) * f
	}
	return Point{Lon: cx / (6 * a), Lat: cy / (6 * a)}, true
}

func vertexMean(ps []Point) (Point, bool) {
	if len(ps) == 0 {
		return Point{}, false
	}
	var x, y float64
	for _, p := range ps {
		x += p.Lon
		y += p.Lat
	}
	n := float64(len(ps))
	return Point{Lon: x / n, Lat: y / n}, true
}
