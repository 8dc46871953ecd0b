package geo

// 文档注释：点入多边形判定（Even-Odd）
// 背景：指针悬停时把屏幕坐标反投影为经纬度，再判定落在哪个区域；支持洞与多面结构。
// 约束：输入为经纬度坐标（WGS84）；射线算法在边界临界值时受数值误差影响，边界上的点归属不保证稳定。
func pointInPoly(pt Point, poly Polygon) bool {
	// 外环命中且不在洞内视为命中
	if len(poly.Rings) == 0 {
		return false
	}
	if !pointInRing(pt, poly.Rings[0]) {
		return false
	}
	for i := 1; i < len(poly.Rings); i++ {
		if pointInRing(pt, poly.Rings[i]) {
			return false
		}
	}
	return true
}

// 射线法判定点是否在环内
func pointInRing(pt Point, ring []Point) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	x := pt.Lon
	y := pt.Lat
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Lon, ring[i].Lat
		xj, yj := ring[j].Lon, ring[j].Lat
		intersect := ((yi > y) != (yj > y)) && (x < (xj-xi)*(y-yi)/(yj-yi+1e-12)+xi)
		if intersect {
			inside = !inside
		}
	}
	return inside
}

// 快速包围盒过滤
func inBBox(pt Point, b [4]float64) bool {
	return pt.Lon >= b[0] && pt.Lon <= b[2] && pt.Lat >= b[1] && pt.Lat <= b[3]
}

// 文档注释：命中测试（包围盒候选 → PIP 精确判定）
// 背景：按区域输入顺序扫描，重叠时先出现的区域胜出；区域数在数千量级，线性扫描即可。
// 返回：命中区域 ID；未命中返回 ok=false。
func (g *Geography) HitTest(lon, lat float64) (string, bool) {
	if g == nil {
		return "", false
	}
	pt := Point{Lon: lon, Lat: lat}
	for i := range g.Regions {
		r := &g.Regions[i]
		for _, p := range r.Geometry.Polygons {
			if !inBBox(pt, p.BBox) {
				continue
			}
			if pointInPoly(pt, p) {
				return r.ID, true
			}
		}
	}
	return "", false
}
