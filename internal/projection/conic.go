package projection

import "math"

// 文档注释：等积圆锥投影（含旋转、中心、插图缩放与偏移）
// 背景：n=(sinφ0+sinφ1)/2，c=1+sinφ0(2n−sinφ0)，r0=√c/n；中心点在未旋转的原始平面上求值后作为原点。
// 约束：u=s·(x−cx)+ox，v=−s·(y−cy)+oy；s/ox/oy 仅复合投影的插图使用，普通 albers 为 1/0/0。
type conic struct {
	n, c, r0 float64
	rotate   float64
	cx, cy   float64
	s        float64
	ox, oy   float64
}

func newConic(phi0, phi1, rotate, centerLon, centerLat, s, ox, oy float64) *conic {
	sy0 := math.Sin(phi0 * radians)
	n := (sy0 + math.Sin(phi1*radians)) / 2
	c := 1 + sy0*(2*n-sy0)
	p := &conic{n: n, c: c, r0: math.Sqrt(c) / n, rotate: rotate, s: s, ox: ox, oy: oy}
	p.cx, p.cy = p.rawForward(centerLon*radians, centerLat*radians)
	return p
}

// 美国本土默认参数：标准纬线 29.5/45.5，旋转 96，中心 (-0.6, 38.7)
func newAlbers() *conic { return newConic(29.5, 45.5, 96, -0.6, 38.7, 1, 0, 0) }

func (p *conic) rawForward(lambda, phi float64) (float64, float64) {
	r := math.Sqrt(math.Max(0, p.c-2*p.n*math.Sin(phi))) / p.n
	a := lambda * p.n
	return r * math.Sin(a), p.r0 - r*math.Cos(a)
}

func (p *conic) rawInverse(x, y float64) (float64, float64) {
	r0y := p.r0 - y
	l := math.Atan2(x, math.Abs(r0y)) * sign(r0y)
	if r0y*p.n < 0 {
		l -= math.Pi * sign(x) * sign(r0y)
	}
	phi := math.Asin(clampUnit((p.c - (x*x+r0y*r0y)*p.n*p.n) / (2 * p.n)))
	return l / p.n, phi
}

func (p *conic) forward(lon, lat float64) (float64, float64, bool) {
	if math.IsNaN(lon) || math.IsNaN(lat) {
		return 0, 0, false
	}
	lambda := wrapLon(lon+p.rotate) * radians
	x, y := p.rawForward(lambda, clampLat(lat)*radians)
	return p.s*(x-p.cx) + p.ox, -p.s*(y-p.cy) + p.oy, true
}

func (p *conic) inverse(u, v float64) (float64, float64, bool) {
	x := (u-p.ox)/p.s + p.cx
	y := -(v-p.oy)/p.s + p.cy
	lambda, phi := p.rawInverse(x, y)
	if math.IsNaN(lambda) || math.IsNaN(phi) {
		return 0, 0, false
	}
	return wrapLon(lambda*degrees - p.rotate), phi * degrees, true
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// box：单位平面上的插图裁剪框（闭区间）
type box struct{ x0, y0, x1, y1 float64 }

func (b box) contains(u, v float64) bool {
	return u >= b.x0 && u <= b.x1 && v >= b.y0 && v <= b.y1
}

// 文档注释：美国复合投影（本土 + 阿拉斯加 + 夏威夷）
// 背景：本土、阿拉斯加（0.35 倍）与夏威夷各自为等积圆锥投影，按固定偏移拼到本土左下方。
// 约束：正向按 本土→阿拉斯加→夏威夷 依次尝试，落入对应裁剪框即采用；三者都不命中返回 ok=false。
//       逆向按归一化坐标所在插图框选择子投影，其余归本土。
type albersUSA struct {
	lower48, alaska, hawaii          *conic
	lower48Box, alaskaBox, hawaiiBox box
}

func newAlbersUSA() *albersUSA {
	return &albersUSA{
		lower48:    newAlbers(),
		alaska:     newConic(55, 65, 154, -2, 58.5, 0.35, -0.307, 0.201),
		hawaii:     newConic(8, 18, 157, -3, 19.9, 1, -0.205, 0.212),
		lower48Box: box{-0.455, -0.238, 0.455, 0.238},
		alaskaBox:  box{-0.425 + epsilon, 0.120 + epsilon, -0.214 - epsilon, 0.234 - epsilon},
		hawaiiBox:  box{-0.214 + epsilon, 0.166 + epsilon, -0.115 - epsilon, 0.234 - epsilon},
	}
}

func (p *albersUSA) forward(lon, lat float64) (float64, float64, bool) {
	parts := []struct {
		proj *conic
		clip box
	}{{p.lower48, p.lower48Box}, {p.alaska, p.alaskaBox}, {p.hawaii, p.hawaiiBox}}
	for _, part := range parts {
		u, v, ok := part.proj.forward(lon, lat)
		if ok && part.clip.contains(u, v) {
			return u, v, true
		}
	}
	return 0, 0, false
}

func (p *albersUSA) inverse(u, v float64) (float64, float64, bool) {
	switch {
	case v >= 0.120 && v < 0.234 && u >= -0.425 && u < -0.214:
		return p.alaska.inverse(u, v)
	case v >= 0.166 && v < 0.234 && u >= -0.214 && u < -0.115:
		return p.hawaii.inverse(u, v)
	}
	return p.lower48.inverse(u, v)
}
