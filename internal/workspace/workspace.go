// 包 workspace：进程级地图状态与推导流水线；所有替换操作原子生效，失败时保持原状态
package workspace

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"choromap/internal/election"
	"choromap/internal/geo"
	"choromap/internal/logger"
	"choromap/internal/metrics"
	"choromap/internal/projection"
	"choromap/internal/render"
	"choromap/internal/warn"
)

var (
	ErrNotFound        = errors.New("workspace: not found")
	ErrNoGeography     = errors.New("workspace: no geography loaded")
	ErrInvalidSettings = errors.New("workspace: invalid settings")
)

// 文档注释：工作区
// 背景：持有地理数据、候选人名单、结果记录与配置，以及派生的索引/汇总/样式/投影；视图、悬停与选中独立于推导。
// 约束：写操作在锁内先构建完整的新输入、跑完推导，成功后一次性替换；任何一步失败都不改动现有状态。
//       平移缩放只改视图，不重跑推导；悬停只在读取样式时叠加，不改派生样式表。
type Workspace struct {
	mu        sync.RWMutex
	in        inputs
	derived   Derived
	view      projection.View
	hover     render.Hover
	selection render.Selection
	loads     map[Slot]uint64
	log       *slog.Logger
}

// New：以给定配置创建空工作区
func New(settings Settings) (*Workspace, error) {
	s, err := settings.Validate()
	if err != nil {
		return nil, err
	}
	w := &Workspace{
		in:    inputs{roster: election.NewRoster(nil), settings: s},
		view:  projection.Identity(),
		loads: make(map[Slot]uint64),
		log:   logger.L(),
	}
	d, err := derive(w.in)
	if err != nil {
		return nil, err
	}
	w.derived = d
	return w, nil
}

// apply：在锁内构建新输入并推导，成功后替换
func (w *Workspace) apply(op string, mutate func(in *inputs) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.applyLocked(op, mutate)
}

func (w *Workspace) applyLocked(op string, mutate func(in *inputs) error) error {
	next := w.in
	if err := mutate(&next); err != nil {
		w.log.Warn("workspace_op_rejected", "op", op, "err", err)
		return err
	}
	start := time.Now()
	d, err := derive(next)
	elapsed := time.Since(start)
	if err != nil {
		w.log.Warn("workspace_derive_fail", "op", op, "err", err)
		return err
	}
	metrics.DeriveDurationMs.Observe(float64(elapsed.Microseconds()) / 1000)

	geoChanged := next.geography != w.in.geography
	refit := geoChanged || needsRefit(w.in.settings, next.settings)
	d.Revision = w.derived.Revision + 1
	w.in, w.derived = next, d
	if refit {
		w.view = projection.Identity()
	}
	if geoChanged {
		w.hover.Reset()
		if id, ok := w.selection.Current(); ok {
			if _, still := next.geography.Lookup(id); !still {
				w.selection.Clear()
			}
		}
		metrics.RegionsLoaded.Set(float64(next.geography.Len()))
	}
	for _, wr := range d.Warnings {
		metrics.WarningsTotal.WithLabelValues(string(wr.Kind)).Inc()
	}
	if d.Fitted != nil && d.Fitted.Degenerate() {
		w.log.Warn("projection_fit_degenerate", "projection", next.settings.Projection, "regions", next.geography.Len())
	}
	w.log.Debug("workspace_derived", "op", op, "revision", d.Revision, "warnings", len(d.Warnings), "duration_us", elapsed.Microseconds())
	return nil
}

// applyElection：选举槽上的直接编辑，推进序号使进行中的选举导入失效
func (w *Workspace) applyElection(op string, mutate func(in *inputs) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loads[SlotElection]++
	return w.applyLocked(op, mutate)
}

// ---- 地理数据 ----

// ReplaceGeography：整体替换地理数据；ws 为规范化阶段产生的警告
func (w *Workspace) ReplaceGeography(g *geo.Geography, ws []warn.Warning) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loads[SlotGeography]++
	return w.replaceGeographyLocked(g, ws)
}

func (w *Workspace) replaceGeographyLocked(g *geo.Geography, ws []warn.Warning) error {
	if g == nil {
		return ErrNoGeography
	}
	return w.applyLocked("replace_geography", func(in *inputs) error {
		in.geography, in.geoWarnings = g, ws
		return nil
	})
}

// ImportGeography：规范化原始数据后替换；规范化失败时原地理数据不变
func (w *Workspace) ImportGeography(raw []byte) ([]warn.Warning, error) {
	g, ws, err := geo.Normalize(raw)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("geography", "error").Inc()
		return nil, err
	}
	if err := w.ReplaceGeography(g, ws); err != nil {
		metrics.ImportsTotal.WithLabelValues("geography", "error").Inc()
		return nil, err
	}
	metrics.ImportsTotal.WithLabelValues("geography", "ok").Inc()
	w.log.Info("geography_imported", "format", g.Source, "regions", g.Len(), "warnings", len(ws))
	return ws, nil
}

// ---- 候选人 ----

func (w *Workspace) ReplaceCandidates(cs []election.Candidate) error {
	return w.applyElection("replace_candidates", func(in *inputs) error {
		in.roster = election.NewRoster(cs)
		return nil
	})
}

func (w *Workspace) AddCandidate(c election.Candidate) error {
	return w.applyElection("add_candidate", func(in *inputs) error {
		r, err := in.roster.Add(c)
		if err != nil {
			return err
		}
		in.roster = r
		return nil
	})
}

func (w *Workspace) UpdateCandidate(c election.Candidate) error {
	return w.applyElection("update_candidate", func(in *inputs) error {
		r, err := in.roster.Update(c)
		if err != nil {
			return err
		}
		in.roster = r
		return nil
	})
}

// RemoveCandidate：只移除名单条目；引用它的结果记录保留，并被标记为未知候选人
func (w *Workspace) RemoveCandidate(id string) error {
	return w.applyElection("remove_candidate", func(in *inputs) error {
		r, err := in.roster.Remove(id)
		if err != nil {
			return err
		}
		in.roster = r
		return nil
	})
}

// ---- 结果 ----

func (w *Workspace) ReplaceResults(records []election.ResultRecord) error {
	return w.applyElection("replace_results", func(in *inputs) error {
		in.records = cloneRecords(records)
		return nil
	})
}

// ReplaceElection：名单与结果一并替换，下游不会观察到只换了一半的状态；cs 为 nil 时保留当前名单
func (w *Workspace) ReplaceElection(cs []election.Candidate, records []election.ResultRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loads[SlotElection]++
	return w.replaceElectionLocked(cs, records)
}

func (w *Workspace) replaceElectionLocked(cs []election.Candidate, records []election.ResultRecord) error {
	return w.applyLocked("replace_election", func(in *inputs) error {
		if cs != nil {
			in.roster = election.NewRoster(cs)
		}
		in.records = cloneRecords(records)
		return nil
	})
}

// UpsertRegionResult：以 records 替换该区域的全部记录；records 为空即清除该区域
func (w *Workspace) UpsertRegionResult(regionID string, records []election.ResultRecord) error {
	if regionID == "" {
		return ErrNotFound
	}
	return w.applyElection("upsert_region_result", func(in *inputs) error {
		out := make([]election.ResultRecord, 0, len(in.records)+len(records))
		for _, r := range in.records {
			if r.RegionID != regionID {
				out = append(out, r)
			}
		}
		for _, r := range records {
			r.RegionID = regionID
			out = append(out, r)
		}
		in.records = out
		return nil
	})
}

func (w *Workspace) ClearResults() error {
	return w.applyElection("clear_results", func(in *inputs) error {
		in.records = nil
		return nil
	})
}

// Reset：清空地理、名单与结果，保留配置
func (w *Workspace) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loads[SlotGeography]++
	w.loads[SlotElection]++
	err := w.applyLocked("reset", func(in *inputs) error {
		*in = inputs{roster: election.NewRoster(nil), settings: in.settings}
		return nil
	})
	if err == nil {
		w.hover.Reset()
		w.selection.Clear()
		w.view = projection.Identity()
		metrics.RegionsLoaded.Set(0)
	}
	return err
}

// Restore：以保存的项目整体替换工作区（地理数据可为 nil）
func (w *Workspace) Restore(g *geo.Geography, ws []warn.Warning, cs []election.Candidate, records []election.ResultRecord, s Settings) error {
	v, err := s.Validate()
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loads[SlotGeography]++
	w.loads[SlotElection]++
	err = w.applyLocked("restore", func(in *inputs) error {
		*in = inputs{geography: g, geoWarnings: ws, roster: election.NewRoster(cs), records: cloneRecords(records), settings: v}
		return nil
	})
	if err == nil {
		w.hover.Reset()
		w.selection.Clear()
		w.view = projection.Identity()
	}
	return err
}

func cloneRecords(rs []election.ResultRecord) []election.ResultRecord {
	if rs == nil {
		return nil
	}
	out := make([]election.ResultRecord, len(rs))
	copy(out, rs)
	return out
}

// ---- 配置 ----

// UpdateSettings：整体替换配置（先校验）
func (w *Workspace) UpdateSettings(s Settings) error {
	v, err := s.Validate()
	if err != nil {
		return err
	}
	return w.apply("update_settings", func(in *inputs) error {
		in.settings = v
		return nil
	})
}

func (w *Workspace) updateSetting(op string, fn func(s *Settings) error) error {
	return w.apply(op, func(in *inputs) error {
		s := in.settings
		if err := fn(&s); err != nil {
			return err
		}
		v, err := s.Validate()
		if err != nil {
			return err
		}
		in.settings = v
		return nil
	})
}

func (w *Workspace) SetProjection(name string) error {
	return w.updateSetting("set_projection", func(s *Settings) error {
		p, err := projection.Parse(name)
		s.Projection = p
		return err
	})
}

func (w *Workspace) SetViewport(size projection.Size) error {
	return w.updateSetting("set_viewport", func(s *Settings) error {
		s.Viewport = size
		return nil
	})
}

func (w *Workspace) SetMode(mode string) error {
	return w.updateSetting("set_mode", func(s *Settings) error {
		m, err := render.ParseMode(mode)
		s.Mode = m
		return err
	})
}

func (w *Workspace) SetTheme(name string) error {
	return w.updateSetting("set_theme", func(s *Settings) error {
		s.Theme = name
		return nil
	})
}

func (w *Workspace) SetMajorityRule(rule election.MajorityRule) error {
	return w.updateSetting("set_majority_rule", func(s *Settings) error {
		s.Majority = rule
		return nil
	})
}

// ---- 视图（不触发推导） ----

func (w *Workspace) Pan(dx, dy float64) projection.View {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.view = w.view.Pan(dx, dy)
	return w.view
}

// Zoom：以视口中心为不动点
func (w *Workspace) Zoom(factor float64) projection.View {
	w.mu.Lock()
	defer w.mu.Unlock()
	vp := w.in.settings.Viewport
	w.view = w.view.ZoomAt(factor, vp.Width/2, vp.Height/2, w.in.settings.ZoomExtent)
	return w.view
}

func (w *Workspace) ZoomAt(factor, cx, cy float64) projection.View {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.view = w.view.ZoomAt(factor, cx, cy, w.in.settings.ZoomExtent)
	return w.view
}

// SetView：直接设置视图（前端手势结束后同步），倍数按范围钳制
func (w *Workspace) SetView(v projection.View) projection.View {
	w.mu.Lock()
	defer w.mu.Unlock()
	if v.K > 0 {
		v.K = w.in.settings.ZoomExtent.Clamp(v.K)
		w.view = v
	}
	return w.view
}

func (w *Workspace) ResetView() projection.View {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.view = projection.Identity()
	return w.view
}

// ---- 指针交互 ----

// PointerEnter：区域不存在时忽略
func (w *Workspace) PointerEnter(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.in.geography.Lookup(id); !ok {
		return false
	}
	return w.hover.Enter(id)
}

func (w *Workspace) PointerLeave(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hover.Leave(id)
}

// PointerAt：屏幕坐标命中测试（视图逆变换 → 投影逆变换 → 点在多边形内），并更新悬停
func (w *Workspace) PointerAt(x, y float64) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id, ok := w.hitLocked(x, y)
	if !ok {
		if cur, had := w.hover.Current(); had {
			w.hover.Leave(cur)
		}
		return "", false
	}
	w.hover.Enter(id)
	return id, true
}

func (w *Workspace) hitLocked(x, y float64) (string, bool) {
	if w.in.geography == nil || w.derived.Fitted == nil {
		return "", false
	}
	lon, lat, ok := projection.ScreenInverse(w.derived.Fitted, w.view, x, y)
	if !ok {
		return "", false
	}
	// 复合投影的逆变换可能把插图外的点映射到某个经纬度，需确认正向投影能回到该点附近
	if _, _, ok := w.derived.Fitted.Project(lon, lat); !ok {
		return "", false
	}
	return w.in.geography.HitTest(lon, lat)
}

// Select：id 为空等同于清除
func (w *Workspace) Select(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id == "" {
		w.selection.Clear()
		return nil
	}
	if _, ok := w.in.geography.Lookup(id); !ok {
		return ErrNotFound
	}
	w.selection.Select(id)
	return nil
}

func (w *Workspace) ClearSelection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selection.Clear()
}
