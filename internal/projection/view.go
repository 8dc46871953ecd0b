package projection

import (
	"fmt"
	"math"
)

// Extent：缩放倍数范围
type Extent struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultExtent：0.5× 到 8×
var DefaultExtent = Extent{Min: 0.5, Max: 8}

// Clamp：把倍数限制在范围内；范围非法时原样返回
func (e Extent) Clamp(k float64) float64 {
	if e.Min <= 0 || e.Max < e.Min {
		return k
	}
	return math.Max(e.Min, math.Min(e.Max, k))
}

// 文档注释：视图变换（平移 + 等比缩放）
// 背景：用户拖拽/滚轮只改变视图，不触发投影重新拟合；屏幕坐标 = View(Fitted(经纬度))。
// 约束：值类型，所有操作返回新值；K 始终为正。
type View struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func Identity() View { return View{K: 1} }

func (v View) IsIdentity() bool { return v.K == 1 && v.X == 0 && v.Y == 0 }

// Apply：拟合坐标 → 屏幕坐标
func (v View) Apply(x, y float64) (float64, float64) {
	return x*v.K + v.X, y*v.K + v.Y
}

// Invert：屏幕坐标 → 拟合坐标
func (v View) Invert(x, y float64) (float64, float64) {
	return (x - v.X) / v.K, (y - v.Y) / v.K
}

// Pan：按屏幕像素平移
func (v View) Pan(dx, dy float64) View {
	return View{K: v.K, X: v.X + dx, Y: v.Y + dy}
}

// ZoomAt：以屏幕点 (cx, cy) 为不动点缩放 factor 倍
func (v View) ZoomAt(factor, cx, cy float64, e Extent) View {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return v
	}
	return v.ScaleTo(v.K*factor, cx, cy, e)
}

// ScaleTo：以屏幕点 (cx, cy) 为不动点设置绝对倍数
func (v View) ScaleTo(k, cx, cy float64, e Extent) View {
	if !(k > 0) || math.IsInf(k, 0) {
		return v
	}
	k = e.Clamp(k)
	px, py := v.Invert(cx, cy)
	return View{K: k, X: cx - px*k, Y: cy - py*k}
}

// String：SVG transform 属性格式
func (v View) String() string {
	return fmt.Sprintf("translate(%g,%g) scale(%g)", v.X, v.Y, v.K)
}

// Screen：经纬度 → 屏幕坐标
func Screen(f *Fitted, v View, lon, lat float64) (x, y float64, ok bool) {
	px, py, ok := f.Project(lon, lat)
	if !ok {
		return 0, 0, false
	}
	x, y = v.Apply(px, py)
	return x, y, true
}

// ScreenInverse：屏幕坐标 → 经纬度
func ScreenInverse(f *Fitted, v View, x, y float64) (lon, lat float64, ok bool) {
	px, py := v.Invert(x, y)
	return f.Unproject(px, py)
}
