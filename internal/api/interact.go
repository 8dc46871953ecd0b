package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"choromap/internal/projection"
)

// viewResult：视图与其 transform 字符串（前端直接写入 <g transform>）
type viewResult struct {
	projection.View
	Transform string `json:"transform"`
}

func viewOut(v projection.View) viewResult { return viewResult{View: v, Transform: v.String()} }

func (s *server) getView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewOut(s.ws.View()))
}

func (s *server) putView(w http.ResponseWriter, r *http.Request) {
	var v projection.View
	if err := decodeJSON(w, r, &v); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOut(s.ws.SetView(v)))
}

func (s *server) pan(w http.ResponseWriter, r *http.Request) {
	var p struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	}
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOut(s.ws.Pan(p.DX, p.DY)))
}

// POST /view/zoom：给定 x/y 时以该屏幕点为不动点，否则以视口中心
func (s *server) zoom(w http.ResponseWriter, r *http.Request) {
	var p struct {
		Factor float64  `json:"factor"`
		X      *float64 `json:"x"`
		Y      *float64 `json:"y"`
	}
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if !(p.Factor > 0) || math.IsInf(p.Factor, 0) {
		writeError(w, r, fmt.Errorf("%w: zoom factor %v", errBadRequest, p.Factor))
		return
	}
	if p.X != nil && p.Y != nil {
		writeJSON(w, http.StatusOK, viewOut(s.ws.ZoomAt(p.Factor, *p.X, *p.Y)))
		return
	}
	writeJSON(w, http.StatusOK, viewOut(s.ws.Zoom(p.Factor)))
}

func (s *server) resetView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewOut(s.ws.ResetView()))
}

type regionRef struct {
	RegionID string `json:"regionId"`
}

type pointerResult struct {
	RegionID string `json:"regionId,omitempty"`
	Hit      bool   `json:"hit"`
	Changed  bool   `json:"changed,omitempty"`
}

func (s *server) pointerEnter(w http.ResponseWriter, r *http.Request) {
	var p regionRef
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	changed := s.ws.PointerEnter(p.RegionID)
	id, ok := s.ws.Hovered()
	writeJSON(w, http.StatusOK, pointerResult{RegionID: id, Hit: ok, Changed: changed})
}

func (s *server) pointerLeave(w http.ResponseWriter, r *http.Request) {
	var p regionRef
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	changed := s.ws.PointerLeave(p.RegionID)
	id, ok := s.ws.Hovered()
	writeJSON(w, http.StatusOK, pointerResult{RegionID: id, Hit: ok, Changed: changed})
}

func (s *server) pointerAt(w http.ResponseWriter, r *http.Request) {
	var p struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	id, ok := s.ws.PointerAt(p.X, p.Y)
	writeJSON(w, http.StatusOK, pointerResult{RegionID: id, Hit: ok})
}

// GET /tooltip：无悬停时 204
func (s *server) tooltip(w http.ResponseWriter, r *http.Request) {
	tt, ok := s.ws.Tooltip()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, tt)
}

func (s *server) selectRegion(w http.ResponseWriter, r *http.Request) {
	var p regionRef
	if err := decodeJSON(w, r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ws.Select(p.RegionID); err != nil {
		writeError(w, r, err)
		return
	}
	id, ok := s.ws.Selected()
	writeJSON(w, http.StatusOK, pointerResult{RegionID: id, Hit: ok})
}

// floatParams：读取必填的浮点查询参数
func floatParams(r *http.Request, names ...string) ([]float64, error) {
	q := r.URL.Query()
	out := make([]float64, len(names))
	for i, n := range names {
		v, err := strconv.ParseFloat(q.Get(n), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Join(errBadRequest, fmt.Errorf("query %s: %q", n, q.Get(n)))
		}
		out[i] = v
	}
	return out, nil
}

func (s *server) project(w http.ResponseWriter, r *http.Request) {
	v, err := floatParams(r, "lon", "lat")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.ws.Project(v[0], v[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *server) unproject(w http.ResponseWriter, r *http.Request) {
	v, err := floatParams(r, "x", "y")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.ws.Unproject(v[0], v[1])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
