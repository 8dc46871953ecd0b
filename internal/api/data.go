package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"choromap/internal/election"
	"choromap/internal/geo"
	"choromap/internal/logger"
	"choromap/internal/metrics"
	"choromap/internal/store"
	"choromap/internal/warn"
	"choromap/internal/workspace"
)

// importResult：导入类接口的统一返回
type importResult struct {
	Revision uint64         `json:"revision"`
	Regions  int            `json:"regions,omitempty"`
	Warnings []warn.Warning `json:"warnings"`
}

func (s *server) incr(r *http.Request, kind store.StatKind) {
	if s.st != nil {
		_ = s.st.IncrStats(r.Context(), kind)
	}
}

func orNone(ws []warn.Warning) []warn.Warning {
	if ws == nil {
		return []warn.Warning{}
	}
	return ws
}

// 文档注释：上传边界文件（GeoJSON / TopoJSON）
// 背景：解析可能耗时，期间允许其他加载发起；提交时凭据已过期则返回 409，状态不变。
// 约束：规范化失败原地理数据不变。
func (s *server) importGeography(w http.ResponseWriter, r *http.Request) {
	t := s.ws.BeginLoad(workspace.SlotGeography)
	raw, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, ws, err := geo.Normalize(raw)
	if err == nil {
		err = s.ws.CommitGeography(t, g, ws)
	}
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("geography", "error").Inc()
		writeError(w, r, err)
		return
	}
	metrics.ImportsTotal.WithLabelValues("geography", "ok").Inc()
	s.incr(r, store.StatImports)
	logger.L().Info("geography_imported", "ticket", t.ID, "format", g.Source, "regions", g.Len(), "warnings", len(ws))
	writeJSON(w, http.StatusOK, importResult{Revision: s.ws.Revision(), Regions: g.Len(), Warnings: orNone(ws)})
}

// GET /geography：规范化后的要素集合
func (s *server) getGeography(w http.ResponseWriter, r *http.Request) {
	g := s.ws.Geography()
	if g == nil {
		writeError(w, r, workspace.ErrNoGeography)
		return
	}
	b, err := g.MarshalJSON()
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("content-type", "application/geo+json")
	w.Header().Set("cache-control", "no-store")
	_, _ = w.Write(b)
}

func (s *server) listMaps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cat.List())
}

type mapLoadResult struct {
	Map      string         `json:"map"`
	Cache    string         `json:"cache"`
	Revision uint64         `json:"revision"`
	Regions  int            `json:"regions"`
	Warnings []warn.Warning `json:"warnings"`
}

// 文档注释：从地图库加载
// 背景：切换地图同时切换到该地图的推荐投影并进入地理模式；除 KeepResults 的地图外清除旧结果。
func (s *server) loadMap(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	t := s.ws.BeginLoad(workspace.SlotGeography)
	ld, err := s.cat.Load(r.Context(), id)
	if err == nil {
		err = s.ws.CommitMap(t, ld.Geography, ld.Warnings, workspace.MapSwitch{Projection: ld.Config.Projection, KeepResults: ld.Config.KeepResults})
	}
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("map", "error").Inc()
		writeError(w, r, err)
		return
	}
	metrics.ImportsTotal.WithLabelValues("map", "ok").Inc()
	s.incr(r, store.StatImports)
	logger.L().Info("map_loaded", "map", id, "cache", ld.Cache, "regions", ld.Geography.Len())
	writeJSON(w, http.StatusOK, mapLoadResult{Map: id, Cache: ld.Cache, Revision: s.ws.Revision(), Regions: ld.Geography.Len(), Warnings: orNone(ld.Warnings)})
}

// ---- 候选人 ----

func (s *server) getCandidates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ws.Candidates())
}

func (s *server) replaceCandidates(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cs, err := election.DecodeCandidates(raw)
	if err == nil {
		err = s.ws.ReplaceCandidates(cs)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ws.Candidates())
}

func (s *server) addCandidate(w http.ResponseWriter, r *http.Request) {
	var c election.Candidate
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ws.AddCandidate(c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *server) updateCandidate(w http.ResponseWriter, r *http.Request) {
	var c election.Candidate
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	c.ID = r.PathValue("id")
	if err := s.ws.UpdateCandidate(c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *server) removeCandidate(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.RemoveCandidate(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- 结果 ----

func (s *server) getResults(w http.ResponseWriter, r *http.Request) {
	rs := s.ws.Records()
	if rs == nil {
		rs = []election.ResultRecord{}
	}
	writeJSON(w, http.StatusOK, rs)
}

func (s *server) replaceResults(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rs, err := election.DecodeRecords(raw)
	if err == nil {
		err = s.ws.ReplaceResults(rs)
	}
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("results", "error").Inc()
		writeError(w, r, err)
		return
	}
	metrics.ImportsTotal.WithLabelValues("results", "ok").Inc()
	s.incr(r, store.StatImports)
	writeJSON(w, http.StatusOK, importResult{Revision: s.ws.Revision(), Warnings: orNone(s.ws.Warnings())})
}

// regionPatch：单区域结果编辑；记录可省略 regionId
type regionPatch struct {
	RegionID string           `json:"regionId"`
	Results  []map[string]any `json:"results"`
}

func (s *server) upsertRegionResult(w http.ResponseWriter, r *http.Request) {
	var p regionPatch
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if p.RegionID == "" {
		writeError(w, r, errors.Join(errBadRequest, errors.New("regionId required")))
		return
	}
	for _, it := range p.Results {
		it["regionId"] = p.RegionID
	}
	raw, err := json.Marshal(p.Results)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rs, err := election.DecodeRecords(raw)
	if err == nil {
		err = s.ws.UpsertRegionResult(p.RegionID, rs)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	ix := s.ws.Index()
	res, ok := ix.Lookup(p.RegionID)
	writeJSON(w, http.StatusOK, map[string]any{"revision": s.ws.Revision(), "resolved": res, "hasData": ok})
}

func (s *server) clearResults(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.ClearResults(); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// 文档注释：组合导入（候选人/政党 + 结果）
// 约束：文档缺少候选人部分时沿用当前名单；名单与结果在同一次推导中生效。
func (s *server) importElection(w http.ResponseWriter, r *http.Request) {
	t := s.ws.BeginLoad(workspace.SlotElection)
	raw, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := election.DecodeElection(raw)
	if err == nil {
		err = s.ws.CommitElection(t, doc.Candidates, doc.Results)
	}
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("election", "error").Inc()
		writeError(w, r, err)
		return
	}
	metrics.ImportsTotal.WithLabelValues("election", "ok").Inc()
	s.incr(r, store.StatImports)
	writeJSON(w, http.StatusOK, importResult{Revision: s.ws.Revision(), Warnings: orNone(s.ws.Warnings())})
}

func (s *server) reset(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.Reset(); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
