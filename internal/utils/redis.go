package utils

import (
	"os"
	"strconv"

	"choromap/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedisFromEnv：从环境变量打开 Redis 客户端，支持 REDIS_DB 选择
// 约束：REDIS_ENABLED=false 时返回 nil（地图缓存只用进程内 LRU）；REDIS_DB 解析失败时回退到 0
func OpenRedisFromEnv() *redis.Client {
	if os.Getenv("REDIS_ENABLED") == "false" {
		return nil
	}
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	addr := host + ":" + port
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, _ := strconv.Atoi(v); n >= 0 {
			db = n
		}
	}
	logger.L().Debug("redis_env", "addr", addr, "db", db)
	return redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASS"), DB: db})
}
