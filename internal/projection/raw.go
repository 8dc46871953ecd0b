package projection

import "math"

// 文档注释：单位平面投影
// 背景：输入经纬度（度），输出缩放为 1、平移为 0 的屏幕方向坐标（y 向下）；拟合阶段再叠加 k/tx/ty。
// 约束：ok=false 表示该点无法放置（复合投影插图范围外），调用方跳过。
type raw interface {
	forward(lon, lat float64) (u, v float64, ok bool)
	inverse(u, v float64) (lon, lat float64, ok bool)
}

const (
	radians = math.Pi / 180
	degrees = 180 / math.Pi
	epsilon = 1e-6

	// 墨卡托纬度上限，保持方形世界
	mercatorMaxLat = 85.0511287798
)

type mercator struct{}

func (mercator) forward(lon, lat float64) (float64, float64, bool) {
	if math.IsNaN(lon) || math.IsNaN(lat) {
		return 0, 0, false
	}
	lat = math.Max(-mercatorMaxLat, math.Min(mercatorMaxLat, lat))
	phi := lat * radians
	return wrapLon(lon) * radians, -math.Log(math.Tan(math.Pi/4 + phi/2)), true
}

func (mercator) inverse(u, v float64) (float64, float64, bool) {
	lon := u * degrees
	lat := (2*math.Atan(math.Exp(-v)) - math.Pi/2) * degrees
	return lon, lat, true
}

// Equal Earth 多项式系数
const (
	eeA1 = 1.340264
	eeA2 = -0.081106
	eeA3 = 0.000893
	eeA4 = 0.003796
)

var eeM = math.Sqrt(3) / 2

type equalEarth struct{}

func (equalEarth) forward(lon, lat float64) (float64, float64, bool) {
	if math.IsNaN(lon) || math.IsNaN(lat) {
		return 0, 0, false
	}
	lambda, phi := wrapLon(lon)*radians, clampLat(lat)*radians
	l := math.Asin(eeM * math.Sin(phi))
	l2 := l * l
	l6 := l2 * l2 * l2
	x := lambda * math.Cos(l) / (eeM * (eeA1 + 3*eeA2*l2 + l6*(7*eeA3+9*eeA4*l2)))
	y := l * (eeA1 + eeA2*l2 + l6*(eeA3+eeA4*l2))
	return x, -y, true
}

// 牛顿迭代求逆，最多 12 次
func (equalEarth) inverse(u, v float64) (float64, float64, bool) {
	x, y := u, -v
	l := y
	l2 := l * l
	l6 := l2 * l2 * l2
	for i := 0; i < 12; i++ {
		fy := l*(eeA1+eeA2*l2+l6*(eeA3+eeA4*l2)) - y
		fpy := eeA1 + 3*eeA2*l2 + l6*(7*eeA3+9*eeA4*l2)
		delta := fy / fpy
		l -= delta
		l2 = l * l
		l6 = l2 * l2 * l2
		if math.Abs(delta) < 1e-12 {
			break
		}
	}
	lambda := eeM * x * (eeA1 + 3*eeA2*l2 + l6*(7*eeA3+9*eeA4*l2)) / math.Cos(l)
	phi := math.Asin(clampUnit(math.Sin(l) / eeM))
	if math.IsNaN(lambda) || math.IsNaN(phi) {
		return 0, 0, false
	}
	return lambda * degrees, phi * degrees, true
}

func wrapLon(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func clampLat(lat float64) float64 { return math.Max(-90, math.Min(90, lat)) }

func clampUnit(x float64) float64 { return math.Max(-1, math.Min(1, x)) }
