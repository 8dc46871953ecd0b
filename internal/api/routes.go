// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"net/http"
	"strconv"
	"time"

	"choromap/internal/catalog"
	"choromap/internal/metrics"
	"choromap/internal/store"
	"choromap/internal/workspace"
)

// server：路由共享的依赖；st 为 nil 时持久化相关接口返回 503
type server struct {
	ws  *workspace.Workspace
	cat *catalog.Catalog
	st  *store.Store
}

// statusRecorder：捕获状态码用于指标分类
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// instrument：按路由模式记录请求数（按状态类别）与耗时
func instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		h(sr, r)
		metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(sr.status/100)+"xx").Inc()
		metrics.RequestDurationMs.WithLabelValues(route).Observe(float64(time.Since(start).Microseconds()) / 1000)
	}
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 API_BASE 前缀
func BuildRoutes(ws *workspace.Workspace, cat *catalog.Catalog, st *store.Store) *http.ServeMux {
	s := &server{ws: ws, cat: cat, st: st}
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) { mux.HandleFunc(pattern, instrument(pattern, h)) }

	handle("POST /geography", s.importGeography)
	handle("GET /geography", s.getGeography)
	handle("GET /maps", s.listMaps)
	handle("POST /maps/{id}/load", s.loadMap)

	handle("GET /candidates", s.getCandidates)
	handle("PUT /candidates", s.replaceCandidates)
	handle("POST /candidates", s.addCandidate)
	handle("PUT /candidates/{id}", s.updateCandidate)
	handle("DELETE /candidates/{id}", s.removeCandidate)
	handle("GET /results", s.getResults)
	handle("PUT /results", s.replaceResults)
	handle("PATCH /results", s.upsertRegionResult)
	handle("DELETE /results", s.clearResults)
	handle("POST /election", s.importElection)
	handle("POST /reset", s.reset)

	handle("GET /aggregates", s.getAggregates)
	handle("GET /index", s.getIndex)
	handle("GET /styles", s.getStyles)
	handle("GET /warnings", s.getWarnings)
	handle("GET /state", s.getState)

	handle("GET /settings", s.getSettings)
	handle("PUT /settings", s.putSettings)
	handle("GET /projections", s.listProjections)
	handle("GET /themes", s.listThemes)

	handle("GET /view", s.getView)
	handle("PUT /view", s.putView)
	handle("POST /view/pan", s.pan)
	handle("POST /view/zoom", s.zoom)
	handle("POST /view/reset", s.resetView)

	handle("POST /pointer/enter", s.pointerEnter)
	handle("POST /pointer/leave", s.pointerLeave)
	handle("POST /pointer/at", s.pointerAt)
	handle("GET /tooltip", s.tooltip)
	handle("POST /select", s.selectRegion)

	handle("GET /project", s.project)
	handle("GET /unproject", s.unproject)

	handle("GET /export.png", s.exportPNG)
	handle("GET /export.svg", s.exportSVG)

	handle("GET /projects", s.listProjects)
	handle("POST /projects", s.saveProject)
	handle("POST /projects/{id}/load", s.loadProject)
	handle("DELETE /projects/{id}", s.deleteProject)
	handle("GET /stats", s.stats)

	return mux
}
