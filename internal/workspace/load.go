package workspace

import (
	"errors"

	"choromap/internal/election"
	"choromap/internal/geo"
	"choromap/internal/metrics"
	"choromap/internal/projection"
	"choromap/internal/render"
	"choromap/internal/warn"

	"github.com/google/uuid"
)

var ErrStaleLoad = errors.New("workspace: stale load, a newer load for the same slot was issued")

// Slot：异步加载的目标状态槽
type Slot string

const (
	SlotGeography Slot = "geography"
	SlotElection  Slot = "election"
)

// Ticket：一次异步加载的凭据
type Ticket struct {
	ID   string `json:"id"`
	Slot Slot   `json:"slot"`
	Seq  uint64 `json:"seq"`
}

// 文档注释：过期加载保护
// 背景：文件读取或远程获取是异步的，后发起的加载可能先完成；晚到的旧结果必须被丢弃而不是覆盖新状态。
// 约束：每个槽单调递增序号；直接替换操作同样推进序号，使之前发出的凭据失效。
//       提交时序号不是该槽最新值即返回 ErrStaleLoad，状态不变。
func (w *Workspace) BeginLoad(slot Slot) Ticket {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loads[slot]++
	return Ticket{ID: uuid.NewString(), Slot: slot, Seq: w.loads[slot]}
}

func (w *Workspace) checkTicketLocked(t Ticket, slot Slot) error {
	if t.Slot != slot || t.Seq != w.loads[slot] {
		metrics.StaleLoadsTotal.WithLabelValues(string(slot)).Inc()
		w.log.Info("stale_load_discarded", "slot", slot, "ticket", t.ID, "seq", t.Seq, "latest", w.loads[slot])
		return ErrStaleLoad
	}
	return nil
}

// CommitGeography：凭据仍为最新时替换地理数据
func (w *Workspace) CommitGeography(t Ticket, g *geo.Geography, ws []warn.Warning) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkTicketLocked(t, SlotGeography); err != nil {
		return err
	}
	return w.replaceGeographyLocked(g, ws)
}

// CommitElection：凭据仍为最新时替换名单与结果；cs 为 nil 表示保留当前名单
func (w *Workspace) CommitElection(t Ticket, cs []election.Candidate, records []election.ResultRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkTicketLocked(t, SlotElection); err != nil {
		return err
	}
	return w.replaceElectionLocked(cs, records)
}

// MapSwitch：从地图库切换地图时一并生效的配置
type MapSwitch struct {
	Projection  projection.Name
	KeepResults bool
	// Mode 为空时切换到地理模式
	Mode render.Mode
}

// 文档注释：切换地图
// 背景：地图库中的地图自带推荐投影；切换后进入地理模式，旧地图的结果通常不再对应任何区域。
// 约束：地理数据、投影、显示模式与结果清除在一次推导中生效；KeepResults 为真时保留名单与结果。
//       清除结果同样推进选举槽序号。
func (w *Workspace) CommitMap(t Ticket, g *geo.Geography, ws []warn.Warning, sw MapSwitch) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkTicketLocked(t, SlotGeography); err != nil {
		return err
	}
	if g == nil {
		return ErrNoGeography
	}
	err := w.applyLocked("commit_map", func(in *inputs) error {
		s := in.settings
		if sw.Projection != "" {
			s.Projection = sw.Projection
		}
		s.Mode = render.ModeGeography
		if sw.Mode != "" {
			s.Mode = sw.Mode
		}
		v, err := s.Validate()
		if err != nil {
			return err
		}
		in.geography, in.geoWarnings, in.settings = g, ws, v
		if !sw.KeepResults {
			in.records = nil
		}
		return nil
	})
	if err == nil && !sw.KeepResults {
		w.loads[SlotElection]++
	}
	return err
}
