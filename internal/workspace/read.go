package workspace

import (
	"choromap/internal/election"
	"choromap/internal/geo"
	"choromap/internal/projection"
	"choromap/internal/render"
	"choromap/internal/warn"
)

// Snapshot：某一修订下的一致视图（供 /state 与持久化使用）
type Snapshot struct {
	Revision   uint64                  `json:"revision"`
	Settings   Settings                `json:"settings"`
	Regions    int                     `json:"regions"`
	Source     geo.Format              `json:"source,omitempty"`
	Candidates []election.Candidate    `json:"candidates"`
	Records    []election.ResultRecord `json:"results"`
	Aggregates election.Aggregates     `json:"aggregates"`
	Warnings   []warn.Warning          `json:"warnings"`
	View       projection.View         `json:"view"`
	Fit        *FitInfo                `json:"fit,omitempty"`
	Hovered    string                  `json:"hovered,omitempty"`
	Selected   string                  `json:"selected,omitempty"`
}

// FitInfo：拟合参数（前端叠加层定位用）
type FitInfo struct {
	Projection projection.Name `json:"projection"`
	Scale      float64         `json:"scale"`
	Translate  [2]float64      `json:"translate"`
	Size       projection.Size `json:"size"`
	Degenerate bool            `json:"degenerate,omitempty"`
}

func fitInfo(f *projection.Fitted) *FitInfo {
	if f == nil {
		return nil
	}
	tx, ty := f.Translate()
	return &FitInfo{Projection: f.Name(), Scale: f.Scale(), Translate: [2]float64{tx, ty}, Size: f.Size(), Degenerate: f.Degenerate()}
}

func (w *Workspace) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := Snapshot{
		Revision:   w.derived.Revision,
		Settings:   w.in.settings,
		Regions:    w.in.geography.Len(),
		Candidates: w.in.roster.Candidates(),
		Records:    cloneRecords(w.in.records),
		Aggregates: w.derived.Aggregates,
		Warnings:   w.derived.Warnings,
		View:       w.view,
		Fit:        fitInfo(w.derived.Fitted),
	}
	if w.in.geography != nil {
		s.Source = w.in.geography.Source
	}
	s.Hovered, _ = w.hover.Current()
	s.Selected, _ = w.selection.Current()
	return s
}

// Geography：当前地理数据（只读，可能为 nil）
func (w *Workspace) Geography() *geo.Geography {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.in.geography
}

func (w *Workspace) Settings() Settings {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.in.settings
}

func (w *Workspace) Candidates() []election.Candidate {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.in.roster.Candidates()
}

func (w *Workspace) Records() []election.ResultRecord {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return cloneRecords(w.in.records)
}

func (w *Workspace) Aggregates() election.Aggregates {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.derived.Aggregates
}

func (w *Workspace) Index() election.Index {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.derived.Index
}

func (w *Workspace) Warnings() []warn.Warning {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.derived.Warnings
}

func (w *Workspace) Revision() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.derived.Revision
}

// Styles：派生样式表的副本，悬停区域叠加悬停样式
func (w *Workspace) Styles() map[string]render.Style {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[string]render.Style, len(w.derived.Styles))
	for k, v := range w.derived.Styles {
		out[k] = v
	}
	if id, ok := w.hover.Current(); ok {
		if r, ok := w.in.geography.Lookup(id); ok {
			theme, _ := render.ThemeByName(w.in.settings.Theme)
			out[id] = render.ResolveStyle(r, w.in.settings.Mode, w.derived.Index, w.in.roster, theme, true)
		}
	}
	return out
}

func (w *Workspace) View() projection.View {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.view
}

func (w *Workspace) Hovered() (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.hover.Current()
}

func (w *Workspace) Selected() (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.selection.Current()
}

// Tooltip：当前悬停区域的提示；无悬停时 ok=false
func (w *Workspace) Tooltip() (render.Tooltip, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	id, ok := w.hover.Current()
	if !ok {
		return render.Tooltip{}, false
	}
	r, ok := w.in.geography.Lookup(id)
	if !ok {
		return render.Tooltip{}, false
	}
	return render.BuildTooltip(r, w.in.settings.Mode, w.derived.Index, w.in.roster), true
}

// Projected：同一点的拟合坐标与屏幕坐标
type Projected struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	ScreenX float64 `json:"screenX"`
	ScreenY float64 `json:"screenY"`
}

// Project：经纬度 → 拟合坐标与屏幕坐标
func (w *Workspace) Project(lon, lat float64) (Projected, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.derived.Fitted == nil {
		return Projected{}, ErrNoGeography
	}
	x, y, ok := w.derived.Fitted.Project(lon, lat)
	if !ok {
		return Projected{}, ErrNotFound
	}
	sx, sy := w.view.Apply(x, y)
	return Projected{X: x, Y: y, ScreenX: sx, ScreenY: sy}, nil
}

// Unproject：屏幕坐标（含视图）→ 经纬度
func (w *Workspace) Unproject(x, y float64) (geo.Point, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.derived.Fitted == nil {
		return geo.Point{}, ErrNoGeography
	}
	lon, lat, ok := projection.ScreenInverse(w.derived.Fitted, w.view, x, y)
	if !ok {
		return geo.Point{}, ErrNotFound
	}
	return geo.Point{Lon: lon, Lat: lat}, nil
}

// ExportScene：恒等视图下的导出场景，样式不含悬停
func (w *Workspace) ExportScene(background string, labels bool) (render.Scene, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.in.geography == nil {
		return render.Scene{}, ErrNoGeography
	}
	return render.Scene{
		Geography:  w.in.geography,
		Styles:     w.derived.Styles,
		Projection: w.in.settings.Projection,
		Fitted:     w.derived.Fitted,
		Padding:    w.in.settings.Padding,
		Background: background,
		Labels:     labels,
	}, nil
}
