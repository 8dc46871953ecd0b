package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"choromap/internal/logger"
	"choromap/internal/metrics"
	"choromap/internal/render"
	"choromap/internal/store"
)

// 文档注释：导出请求参数
// 背景：宽高缺省取当前视口；background 缺省白色；labels=false 关闭标签。
// 约束：非正整数尺寸视为非法输入。
func exportSize(r *http.Request, defW, defH float64) (int, int, error) {
	q := r.URL.Query()
	dim := func(name string, def float64) (int, error) {
		s := q.Get(name)
		if s == "" {
			return int(def + 0.5), nil
		}
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%w: %s=%q", errBadRequest, name, s)
		}
		return n, nil
	}
	width, err := dim("width", defW)
	if err != nil {
		return 0, 0, err
	}
	height, err := dim("height", defH)
	if err != nil {
		return 0, 0, err
	}
	return width, height, nil
}

type renderFunc func(w io.Writer, s render.Scene, width, height int) error

func (s *server) export(w http.ResponseWriter, r *http.Request, format, contentType string, fn renderFunc) {
	vp := s.ws.Settings().Viewport
	width, height, err := exportSize(r, vp.Width, vp.Height)
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	scene, err := s.ws.ExportScene(q.Get("background"), q.Get("labels") != "false")
	if err != nil {
		writeError(w, r, err)
		return
	}
	start := time.Now()
	var buf bytes.Buffer
	if err := fn(&buf, scene, width, height); err != nil {
		writeError(w, r, err)
		return
	}
	metrics.ExportsTotal.WithLabelValues(format).Inc()
	metrics.ExportDurationMs.WithLabelValues(format).Observe(float64(time.Since(start).Microseconds()) / 1000)
	s.incr(r, store.StatExports)
	logger.L().Debug("export_done", "format", format, "width", width, "height", height, "bytes", buf.Len())
	w.Header().Set("content-type", contentType)
	w.Header().Set("content-disposition", `attachment; filename="map.`+format+`"`)
	w.Header().Set("cache-control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *server) exportPNG(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "png", "image/png", render.RenderPNG)
}

func (s *server) exportSVG(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "svg", "image/svg+xml", render.RenderSVG)
}
