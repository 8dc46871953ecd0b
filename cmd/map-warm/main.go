package main

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"choromap/internal/catalog"
	"choromap/internal/logger"
	"choromap/internal/utils"

	"github.com/joho/godotenv"
)

// 文档注释：预热地图缓存
// 背景：多实例部署时由一次性任务把地图库中全部可用地图规范化并写入 Redis，服务实例冷启动后直接命中共享缓存。
// 约束：Redis 不可用时退出码为 1；单张地图失败只记录日志并继续，结束时汇总失败数。
func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Error("redis_disabled")
		os.Exit(1)
	}
	defer rc.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		l.Error("redis_ping_error", "err", err)
		os.Exit(1)
	}
	dir := os.Getenv("MAPS_DIR")
	if dir == "" {
		dir = filepath.Join("data", "maps")
	}
	ttl := time.Hour
	if s := os.Getenv("GEO_CACHE_TTL_S"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			ttl = time.Duration(n) * time.Second
		}
	}
	cat := catalog.New(dir, rc, ttl)
	var ok, failed int
	for _, e := range cat.List() {
		if !e.Available {
			l.Debug("warm_skip", "map", e.ID, "reason", "file_missing")
			continue
		}
		ld, err := cat.Load(ctx, e.ID)
		if err != nil {
			failed++
			l.Error("warm_error", "map", e.ID, "err", err)
			continue
		}
		ok++
		l.Info("warm_ok", "map", e.ID, "cache", ld.Cache, "regions", ld.Geography.Len(), "warnings", len(ld.Warnings))
	}
	l.Info("warm_done", "ok", ok, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
