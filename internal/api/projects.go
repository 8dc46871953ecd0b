package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"choromap/internal/election"
	"choromap/internal/geo"
	"choromap/internal/logger"
	"choromap/internal/store"
	"choromap/internal/warn"
	"choromap/internal/workspace"

	"github.com/google/uuid"
)

// 文档注释：工作区 → 项目记录
// 背景：地理数据以规范化后的要素集合保存，重新加载时走同一规范化路径；结果保存为规范形状。
func projectFromWorkspace(ws *workspace.Workspace, id, name string) (store.Project, error) {
	p := store.Project{ID: id, Name: name}
	if g := ws.Geography(); g != nil {
		b, err := g.MarshalJSON()
		if err != nil {
			return p, err
		}
		p.Geography = b
	}
	var err error
	if p.Candidates, err = json.Marshal(ws.Candidates()); err != nil {
		return p, err
	}
	recs := ws.Records()
	if recs == nil {
		recs = []election.ResultRecord{}
	}
	if p.Results, err = json.Marshal(recs); err != nil {
		return p, err
	}
	if p.Settings, err = json.Marshal(ws.Settings()); err != nil {
		return p, err
	}
	return p, nil
}

// restoreProject：项目记录 → 工作区；任何字段解析失败时工作区不变
func restoreProject(ws *workspace.Workspace, p *store.Project) error {
	var g *geo.Geography
	var warns []warn.Warning
	if len(p.Geography) > 0 && string(p.Geography) != "null" {
		var err error
		if g, warns, err = geo.Normalize(p.Geography); err != nil {
			return fmt.Errorf("project %s geography: %w", p.ID, err)
		}
	}
	var cs []election.Candidate
	if len(p.Candidates) > 0 {
		if err := json.Unmarshal(p.Candidates, &cs); err != nil {
			return &election.InputError{Index: -1, Reason: "project candidates: " + err.Error()}
		}
	}
	var rs []election.ResultRecord
	if len(p.Results) > 0 {
		if err := json.Unmarshal(p.Results, &rs); err != nil {
			return &election.InputError{Index: -1, Reason: "project results: " + err.Error()}
		}
	}
	settings := workspace.DefaultSettings()
	if len(p.Settings) > 0 {
		if err := json.Unmarshal(p.Settings, &settings); err != nil {
			return &election.InputError{Index: -1, Reason: "project settings: " + err.Error()}
		}
	}
	return ws.Restore(g, warns, cs, rs, settings)
}

func (s *server) listProjects(w http.ResponseWriter, r *http.Request) {
	if s.st == nil {
		writeError(w, r, errPersistenceDisabled)
		return
	}
	out, err := s.st.ListProjects(r.Context(), 100)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /projects：保存当前工作区；省略 id 时生成新 ID
func (s *server) saveProject(w http.ResponseWriter, r *http.Request) {
	if s.st == nil {
		writeError(w, r, errPersistenceDisabled)
		return
	}
	var req struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		req.ID = uuid.NewString()
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = "Untitled map"
	}
	p, err := projectFromWorkspace(s.ws, req.ID, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.st.SaveProject(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	logger.L().Info("project_saved", "id", p.ID, "name", p.Name)
	writeJSON(w, http.StatusCreated, map[string]string{"id": p.ID, "name": p.Name})
}

func (s *server) loadProject(w http.ResponseWriter, r *http.Request) {
	if s.st == nil {
		writeError(w, r, errPersistenceDisabled)
		return
	}
	p, err := s.st.LoadProject(r.Context(), r.PathValue("id"))
	if err == nil {
		err = restoreProject(s.ws, p)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.L().Info("project_loaded", "id", p.ID)
	writeJSON(w, http.StatusOK, s.ws.Snapshot())
}

func (s *server) deleteProject(w http.ResponseWriter, r *http.Request) {
	if s.st == nil {
		writeError(w, r, errPersistenceDisabled)
		return
	}
	if err := s.st.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) stats(w http.ResponseWriter, r *http.Request) {
	if s.st == nil {
		writeError(w, r, errPersistenceDisabled)
		return
	}
	t, err := s.st.GetTotals(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
