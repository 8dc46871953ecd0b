package render

import (
	"choromap/internal/election"
	"choromap/internal/geo"
)

// Style：单个区域的最终绘制样式
type Style struct {
	FillColor   string  `json:"fillColor"`
	StrokeColor string  `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
	LabelText   string  `json:"labelText"`
	LabelColor  string  `json:"labelColor"`
	LabelSize   float64 `json:"labelSize"`
	Opacity     float64 `json:"opacity"`
	NoData      bool    `json:"noData,omitempty"`
}

// 文档注释：解析区域样式
// 背景：选举模式取该区域领先候选人的颜色，无结果、候选人未知或无颜色时为 noData 灰；地理模式取主题预设。
// 约束：纯函数；悬停样式只覆盖描边/文字（地理模式另覆盖填充），不改变区域归属。
//       标签为区域缩写，缺省为空串。
func ResolveStyle(r *geo.Region, mode Mode, ix election.Index, roster *election.Roster, theme Theme, hovered bool) Style {
	if r == nil {
		return Style{}
	}
	if mode == ModeElection {
		s := Style{
			FillColor:   Election.NoData,
			StrokeColor: Election.Stroke,
			StrokeWidth: Election.StrokeWidth,
			LabelText:   r.Abbreviation,
			LabelColor:  Election.TextColor,
			LabelSize:   Election.TextSize,
			Opacity:     1,
			NoData:      true,
		}
		if res, ok := ix.Lookup(r.ID); ok && !res.UnknownCandidate {
			if c, ok := roster.Lookup(res.CandidateID); ok && c.Color != "" {
				s.FillColor, s.NoData = c.Color, false
			}
		}
		if hovered {
			s.StrokeColor = Election.HoverStroke
			s.StrokeWidth = Election.HoverStrokeWidth
			s.LabelColor = Election.TextHoverColor
		}
		return s
	}
	s := Style{
		FillColor:   theme.Fill,
		StrokeColor: theme.Stroke,
		StrokeWidth: theme.StrokeWidth,
		LabelText:   r.Abbreviation,
		LabelColor:  theme.TextColor,
		LabelSize:   theme.TextSize,
		Opacity:     theme.Opacity,
	}
	if s.Opacity == 0 {
		s.Opacity = 1
	}
	if hovered {
		if theme.HoverFill != "" {
			s.FillColor = theme.HoverFill
		}
		s.StrokeColor = theme.HoverStroke
		s.StrokeWidth = theme.HoverStrokeWidth
		if theme.TextHoverColor != "" {
			s.LabelColor = theme.TextHoverColor
		}
	}
	return s
}

// ResolveAll：全部区域的基础样式（不含悬停）
func ResolveAll(g *geo.Geography, mode Mode, ix election.Index, roster *election.Roster, theme Theme) map[string]Style {
	out := make(map[string]Style, g.Len())
	if g == nil {
		return out
	}
	for i := range g.Regions {
		r := &g.Regions[i]
		out[r.ID] = ResolveStyle(r, mode, ix, roster, theme, false)
	}
	return out
}
