package render

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownTheme = errors.New("render: unknown theme")
	ErrUnknownMode  = errors.New("render: unknown display mode")
)

// Mode：显示模式
type Mode string

const (
	ModeGeography Mode = "geography"
	ModeElection  Mode = "election"
)

// ParseMode：大小写不敏感
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ModeGeography):
		return ModeGeography, nil
	case string(ModeElection):
		return ModeElection, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// 文档注释：地理模式主题
// 约束：封闭集合，由 ThemeByName 取值；Opacity 为 0 表示不透明。
type Theme struct {
	Name             string  `json:"name"`
	Fill             string  `json:"fill"`
	Stroke           string  `json:"stroke"`
	StrokeWidth      float64 `json:"strokeWidth"`
	HoverFill        string  `json:"hoverFill"`
	HoverStroke      string  `json:"hoverStroke"`
	HoverStrokeWidth float64 `json:"hoverStrokeWidth"`
	Opacity          float64 `json:"opacity,omitempty"`
	TextColor        string  `json:"textColor"`
	TextHoverColor   string  `json:"textHoverColor"`
	TextSize         float64 `json:"textSize"`
	TextWeight       string  `json:"textWeight"`
}

// ElectionPalette：选举模式的固定配色
type ElectionPalette struct {
	NoData           string  `json:"noData"`
	Stroke           string  `json:"stroke"`
	StrokeWidth      float64 `json:"strokeWidth"`
	HoverStroke      string  `json:"hoverStroke"`
	HoverStrokeWidth float64 `json:"hoverStrokeWidth"`
	TextColor        string  `json:"textColor"`
	TextHoverColor   string  `json:"textHoverColor"`
	TextSize         float64 `json:"textSize"`
	TextWeight       string  `json:"textWeight"`
}

var Election = ElectionPalette{
	NoData:           "#e0e0e0",
	Stroke:           "#ffffff",
	StrokeWidth:      1,
	HoverStroke:      "#333333",
	HoverStrokeWidth: 2,
	TextColor:        "#333333",
	TextHoverColor:   "#000000",
	TextSize:         12,
	TextWeight:       "bold",
}

const DefaultTheme = "default"

var themes = map[string]Theme{
	"default": {
		Name: "default", Fill: "#6ba3f5", Stroke: "#ffffff", StrokeWidth: 0.5,
		HoverFill: "#4a90e2", HoverStroke: "#2c5aa0", HoverStrokeWidth: 2, Opacity: 0.9,
		TextColor: "#1565c0", TextHoverColor: "#0d47a1", TextSize: 12, TextWeight: "bold",
	},
	"ocean": {
		Name: "ocean", Fill: "#bbdefb", Stroke: "#90caf9", StrokeWidth: 0.5,
		HoverFill: "#90caf9", HoverStroke: "#64b5f6", HoverStrokeWidth: 2,
		TextColor: "#1976d2", TextHoverColor: "#1565c0", TextSize: 12, TextWeight: "bold",
	},
	"earth": {
		Name: "earth", Fill: "#81c784", Stroke: "#ffffff", StrokeWidth: 0.5,
		HoverFill: "#66bb6a", HoverStroke: "#4caf50", HoverStrokeWidth: 2,
		TextColor: "#2e7d32", TextHoverColor: "#1b5e20", TextSize: 12, TextWeight: "bold",
	},
	"minimal": {
		Name: "minimal", Fill: "#f5f5f5", Stroke: "#bdbdbd", StrokeWidth: 0.5,
		HoverFill: "#eeeeee", HoverStroke: "#757575", HoverStrokeWidth: 1.5,
		TextColor: "#424242", TextHoverColor: "#212121", TextSize: 11, TextWeight: "600",
	},
	"dark": {
		Name: "dark", Fill: "#37474f", Stroke: "#263238", StrokeWidth: 0.5,
		HoverFill: "#455a64", HoverStroke: "#78909c", HoverStrokeWidth: 2,
		TextColor: "#eceff1", TextHoverColor: "#ffffff", TextSize: 12, TextWeight: "bold",
	},
}

// ThemeByName：未知名称返回 ErrUnknownTheme
func ThemeByName(name string) (Theme, error) {
	t, ok := themes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Theme{}, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	return t, nil
}

func ThemeNames() []string {
	out := make([]string, 0, len(themes))
	for k := range themes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
