// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"choromap/internal/api"
	"choromap/internal/catalog"
	"choromap/internal/logger"
	"choromap/internal/metrics"
	"choromap/internal/middleware"
	"choromap/internal/migrate"
	"choromap/internal/projection"
	"choromap/internal/render"
	"choromap/internal/store"
	"choromap/internal/utils"
	"choromap/internal/workspace"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func envFloat(name string, def float64) float64 {
	if s := os.Getenv(name); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
		logger.L().Warn("config_bad_number", "name", name, "value", s)
	}
	return def
}

func envString(name, def string) string {
	if s := os.Getenv(name); s != "" {
		return s
	}
	return def
}

// settingsFromEnv：工作区初始配置；未设置的项取默认值，最终由 Validate 把关
func settingsFromEnv() (workspace.Settings, error) {
	s := workspace.DefaultSettings()
	s.Projection = projection.Name(envString("DEFAULT_PROJECTION", string(s.Projection)))
	s.Mode = render.Mode(envString("DEFAULT_MODE", string(s.Mode)))
	s.Theme = envString("DEFAULT_THEME", s.Theme)
	s.Viewport.Width = envFloat("VIEWPORT_WIDTH", s.Viewport.Width)
	s.Viewport.Height = envFloat("VIEWPORT_HEIGHT", s.Viewport.Height)
	s.Padding = envFloat("FIT_PADDING", s.Padding)
	s.Majority.Total = envFloat("MAJORITY_TOTAL", s.Majority.Total)
	s.Majority.Threshold = envFloat("MAJORITY_THRESHOLD", s.Majority.Threshold)
	s.ZoomExtent.Min = envFloat("ZOOM_MIN", s.ZoomExtent.Min)
	s.ZoomExtent.Max = envFloat("ZOOM_MAX", s.ZoomExtent.Max)
	return s.Validate()
}

// openStore：未配置 PG 时返回 nil，项目接口随之返回 503
func openStore(l *slog.Logger) *store.Store {
	if !utils.PostgresEnabled() {
		l.Info("db_disabled")
		return nil
	}
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		return nil
	}
	if err := db.Ping(); err != nil {
		l.Error("db_ping_error", "err", err)
		_ = db.Close()
		return nil
	}
	l.Info("db_ping_ok")
	if err := migrate.EnsureSchema(db); err != nil {
		l.Error("schema_error", "err", err)
		_ = db.Close()
		return nil
	}
	return store.AttachDB(db)
}

func openRedis(l *slog.Logger) *redis.Client {
	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		l.Error("redis_ping_error", "err", err)
		_ = rc.Close()
		return nil
	}
	l.Info("redis_ping_ok")
	return rc
}

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Debug("log_init_ok")

	apiBase := envString("API_BASE", "/api")
	ui := envString("UI_DIST", filepath.Join("ui", "dist"))
	mapsDir := envString("MAPS_DIR", filepath.Join("data", "maps"))
	l.Debug("config_paths", "api_base", apiBase, "ui", ui, "maps", mapsDir)
	if mb := envFloat("MAX_UPLOAD_MB", 64); mb > 0 {
		api.MaxBodyBytes = int64(mb * (1 << 20))
	}

	settings, err := settingsFromEnv()
	if err != nil {
		l.Error("config_settings_error", "err", err)
		os.Exit(1)
	}
	ws, err := workspace.New(settings)
	if err != nil {
		l.Error("workspace_init_error", "err", err)
		os.Exit(1)
	}

	st := openStore(l)
	if st != nil {
		defer st.Close()
	}
	rc := openRedis(l)
	ttl := time.Duration(envFloat("GEO_CACHE_TTL_S", 3600)) * time.Second
	cat := catalog.New(mapsDir, rc, ttl)

	// 启动时预载默认地图（与前端初始状态一致）；失败不影响服务
	if id := os.Getenv("DEFAULT_MAP"); id != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := preloadMap(ctx, ws, cat, id, render.Mode(os.Getenv("DEFAULT_MODE"))); err != nil {
			l.Error("default_map_error", "map", id, "err", err)
		}
		cancel()
	}

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(ws, cat, st)
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiMux))
	mux.Handle(apiBase+"/metrics", metrics.Handler())
	mux.Handle("/", http.FileServer(http.Dir(ui)))

	// NOTE: 向前端暴露 API 基础路径，避免硬编码
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + apiBase + "'\n"))
		_, _ = w.Write([]byte("window.__PERSISTENCE__=" + strconv.FormatBool(st != nil) + "\n"))
	})

	addr := envString("ADDR", ":8080")
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		l.Info("shutdown_begin")
		_ = s.Shutdown(sctx)
	}()

	if os.Getenv("TLS_ENABLE") == "true" {
		certPath := envString("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt"))
		keyPath := envString("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key"))
		if err := utils.EnsureSelfSignedCert(certPath, keyPath, "choromap.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		// 可选：启动HTTP重定向到HTTPS（不改变HTTPS运行端口）
		if os.Getenv("TLS_REDIRECT_ENABLE") == "true" {
			go redirectToHTTPS(l, envString("TLS_REDIRECT_ADDR", ":80"), addr)
		}
		l.Info("listening_tls", "addr", addr, "cert", certPath)
		if err := s.ListenAndServeTLS(certPath, keyPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("listen_error", "err", err)
		}
		return
	}
	l.Info("listening", "addr", addr)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("listen_error", "err", err)
	}
}

// preloadMap：与从地图库切换地图相同，一并应用地图的推荐投影与结果保留策略；mode 非空时覆盖切换后的显示模式
func preloadMap(ctx context.Context, ws *workspace.Workspace, cat *catalog.Catalog, id string, mode render.Mode) error {
	t := ws.BeginLoad(workspace.SlotGeography)
	ld, err := cat.Load(ctx, id)
	if err != nil {
		return err
	}
	sw := workspace.MapSwitch{Projection: ld.Config.Projection, KeepResults: ld.Config.KeepResults, Mode: mode}
	if err := ws.CommitMap(t, ld.Geography, ld.Warnings, sw); err != nil {
		return err
	}
	logger.L().Info("default_map_loaded", "map", id, "regions", ld.Geography.Len(), "projection", ld.Config.Projection)
	return nil
}

func redirectToHTTPS(l *slog.Logger, redirAddr, addr string) {
	httpsPort := strings.TrimPrefix(addr, ":")
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if i := strings.LastIndex(host, ":"); i != -1 {
			host = host[:i]
		}
		if httpsPort != "" {
			host += ":" + httpsPort
		}
		target := "https://" + host + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		l.Debug("http_redirect", "from", r.Host, "to", target)
	})
	l.Info("http_redirect_listening", "addr", redirAddr, "to", "https"+addr)
	_ = http.ListenAndServe(redirAddr, h)
}
