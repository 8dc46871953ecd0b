package workspace

import (
	"fmt"
	"math"

	"choromap/internal/election"
	"choromap/internal/projection"
	"choromap/internal/render"
)

// 文档注释：显示与计算配置
// 背景：前端配置项（投影、视口、显示模式、主题、多数规则）集中于此；任何一项变化都整体重新推导。
// 约束：Validate 通过后才会进入推导；名称字段保存规范拼写。
type Settings struct {
	Projection projection.Name       `json:"projection"`
	Viewport   projection.Size       `json:"viewport"`
	Padding    float64               `json:"padding"`
	Mode       render.Mode           `json:"mode"`
	Theme      string                `json:"theme"`
	Majority   election.MajorityRule `json:"majority"`
	ZoomExtent projection.Extent     `json:"zoomExtent"`
}

func DefaultSettings() Settings {
	return Settings{
		Projection: projection.AlbersUSA,
		Viewport:   projection.Size{Width: 960, Height: 600},
		Padding:    0,
		Mode:       render.ModeElection,
		Theme:      render.DefaultTheme,
		Majority:   election.DefaultMajorityRule(),
		ZoomExtent: projection.DefaultExtent,
	}
}

// Validate：规范化名称并检查数值范围
func (s Settings) Validate() (Settings, error) {
	p, err := projection.Parse(string(s.Projection))
	if err != nil {
		return s, err
	}
	s.Projection = p
	m, err := render.ParseMode(string(s.Mode))
	if err != nil {
		return s, err
	}
	s.Mode = m
	t, err := render.ThemeByName(s.Theme)
	if err != nil {
		return s, err
	}
	s.Theme = t.Name
	if !(s.Viewport.Width > 0) || !(s.Viewport.Height > 0) || math.IsInf(s.Viewport.Width, 0) || math.IsInf(s.Viewport.Height, 0) {
		return s, fmt.Errorf("%w: viewport %vx%v", ErrInvalidSettings, s.Viewport.Width, s.Viewport.Height)
	}
	if s.Padding < 0 || math.IsNaN(s.Padding) {
		return s, fmt.Errorf("%w: padding %v", ErrInvalidSettings, s.Padding)
	}
	if s.Majority.Total < 0 || s.Majority.Threshold < 0 || math.IsNaN(s.Majority.Total) || math.IsNaN(s.Majority.Threshold) {
		return s, fmt.Errorf("%w: majority rule %+v", ErrInvalidSettings, s.Majority)
	}
	if s.ZoomExtent.Min <= 0 || s.ZoomExtent.Max < s.ZoomExtent.Min {
		s.ZoomExtent = projection.DefaultExtent
	}
	return s, nil
}

// 这些字段变化需要重新拟合投影（视图随之重置）
func needsRefit(a, b Settings) bool {
	return a.Projection != b.Projection || a.Viewport != b.Viewport || a.Padding != b.Padding
}
