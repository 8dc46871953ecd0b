package middleware

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"choromap/internal/logger"
)

// 文档注释：令牌桶限流中间件（每秒）
// 背景：导出与上传都是重操作，流量峰值时对入口限速，避免栅格化与推导占满 CPU；按环境变量开关与速率配置。
// 约束：简化实现，不做队列排队，仅丢弃并返回 429。
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	mu       sync.Mutex
	now      func() time.Time
}

func NewTokenBucket(qps int) *TokenBucket {
	if qps <= 0 {
		qps = 1
	}
	return &TokenBucket{capacity: qps, tokens: qps, lastSec: time.Now().Unix(), now: time.Now}
}

func (tb *TokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	nowSec := tb.now().Unix()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// Limit：超出速率直接 429
func Limit(tb *TokenBucket, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !tb.allow() {
			logger.L().Debug("rate_limited", "path", r.URL.Path, "request_id", RequestID(r.Context()))
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Wrap：请求 ID 在最外层，限流按 RATE_LIMIT_ENABLED 开启
func Wrap(next http.Handler) http.Handler {
	h := next
	if os.Getenv("RATE_LIMIT_ENABLED") == "true" {
		qps := 200
		if s := os.Getenv("RATE_LIMIT_QPS"); s != "" {
			if n, e := strconv.Atoi(s); e == nil && n > 0 {
				qps = n
			}
		}
		logger.L().Info("rate_limit_enabled", "qps", qps)
		h = Limit(NewTokenBucket(qps), h)
	}
	return WithRequestID(h)
}
