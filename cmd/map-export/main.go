package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"choromap/internal/catalog"
	"choromap/internal/election"
	"choromap/internal/geo"
	"choromap/internal/logger"
	"choromap/internal/projection"
	"choromap/internal/render"
	"choromap/internal/workspace"

	"github.com/joho/godotenv"
)

// 文档注释：离线导出地图图片
// 背景：批量生成静态图（报告、归档）时不需要启动服务；与 /export 接口走同一条推导与渲染路径。
// 约束：EXPORT_GEO（边界文件路径）与 EXPORT_MAP（地图库 ID）二选一；EXPORT_OUT 扩展名决定格式（.png / .svg）。
//       EXPORT_ELECTION 可选，为组合导入文档；存在时默认进入选举模式。
func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	out := os.Getenv("EXPORT_OUT")
	if out == "" {
		l.Error("export_out_missing")
		os.Exit(1)
	}
	if err := run(out); err != nil {
		l.Error("export_error", "err", err)
		os.Exit(1)
	}
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func run(out string) error {
	l := logger.L()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var g *geo.Geography
	var warns int
	proj := projection.Name(os.Getenv("EXPORT_PROJECTION"))
	switch {
	case os.Getenv("EXPORT_GEO") != "":
		raw, err := os.ReadFile(os.Getenv("EXPORT_GEO"))
		if err != nil {
			return err
		}
		gg, ws, err := geo.Normalize(raw)
		if err != nil {
			return err
		}
		g, warns = gg, len(ws)
		if proj == "" {
			proj = projection.Mercator
		}
	case os.Getenv("EXPORT_MAP") != "":
		dir := os.Getenv("MAPS_DIR")
		if dir == "" {
			dir = filepath.Join("data", "maps")
		}
		ld, err := catalog.New(dir, nil, 0).Load(ctx, os.Getenv("EXPORT_MAP"))
		if err != nil {
			return err
		}
		g, warns = ld.Geography, len(ld.Warnings)
		if proj == "" {
			proj = ld.Config.Projection
		}
	default:
		return fmt.Errorf("EXPORT_GEO or EXPORT_MAP required")
	}

	s := workspace.DefaultSettings()
	s.Projection = proj
	s.Mode = render.ModeGeography
	if t := os.Getenv("EXPORT_THEME"); t != "" {
		s.Theme = t
	}
	width, height := envInt("EXPORT_WIDTH", 1920), envInt("EXPORT_HEIGHT", 1080)
	s.Viewport = projection.Size{Width: float64(width), Height: float64(height)}
	ws, err := workspace.New(s)
	if err != nil {
		return err
	}
	if err := ws.ReplaceGeography(g, nil); err != nil {
		return err
	}
	if p := os.Getenv("EXPORT_ELECTION"); p != "" {
		raw, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		doc, err := election.DecodeElection(raw)
		if err != nil {
			return err
		}
		if err := ws.ReplaceElection(doc.Candidates, doc.Results); err != nil {
			return err
		}
		if err := ws.SetMode(envOr("EXPORT_MODE", string(render.ModeElection))); err != nil {
			return err
		}
	}
	for _, w := range ws.Warnings() {
		l.Warn("export_warning", "kind", w.Kind, "region", w.RegionID, "candidate", w.CandidateID)
	}

	scene, err := ws.ExportScene(os.Getenv("EXPORT_BACKGROUND"), os.Getenv("EXPORT_LABELS") != "false")
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(out)) {
	case ".png":
		err = render.RenderPNG(&buf, scene, width, height)
	case ".svg":
		err = render.RenderSVG(&buf, scene, width, height)
	default:
		return fmt.Errorf("unsupported output extension %q", filepath.Ext(out))
	}
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return err
	}
	l.Info("export_written", "out", out, "regions", g.Len(), "geo_warnings", warns, "bytes", buf.Len(), "projection", proj)
	return nil
}

func envOr(name, def string) string {
	if s := os.Getenv(name); s != "" {
		return s
	}
	return def
}
