package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"choromap/internal/election"
	"choromap/internal/projection"
	"choromap/internal/render"
)

func (s *server) getAggregates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ws.Aggregates())
}

func (s *server) getIndex(w http.ResponseWriter, r *http.Request) {
	ix := s.ws.Index()
	if ix == nil {
		ix = election.Index{}
	}
	writeJSON(w, http.StatusOK, ix)
}

// GET /styles：区域样式表（含悬停叠加）
func (s *server) getStyles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ws.Styles())
}

func (s *server) getWarnings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, orNone(s.ws.Warnings()))
}

func (s *server) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ws.Snapshot())
}

func (s *server) getSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ws.Settings())
}

// PUT /settings：请求体覆盖到当前配置之上，缺省字段保持不变
func (s *server) putSettings(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cur := s.ws.Settings()
	if err := json.Unmarshal(raw, &cur); err != nil {
		writeError(w, r, errors.Join(errBadRequest, err))
		return
	}
	if err := s.ws.UpdateSettings(cur); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ws.Settings())
}

func (s *server) listProjections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, projection.Names())
}

func (s *server) listThemes(w http.ResponseWriter, r *http.Request) {
	out := make([]render.Theme, 0)
	for _, n := range render.ThemeNames() {
		t, _ := render.ThemeByName(n)
		out = append(out, t)
	}
	writeJSON(w, http.StatusOK, out)
}
