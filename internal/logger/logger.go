// 包 logger：统一初始化与获取日志器，避免各模块重复配置；通过环境变量控制日志级别与输出格式
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu            sync.Mutex
	defaultLogger *slog.Logger
)

// Setup：按 LOG_LEVEL / LOG_FORMAT 初始化默认日志器，输出到标准错误
func Setup() *slog.Logger {
	return SetupWriter(os.Stderr)
}

// SetupWriter：同 Setup，输出目标可替换（测试与命令行工具使用）
func SetupWriter(w io.Writer) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	var h slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	}
	l := slog.New(h).With("app", "choromap")
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	return l
}

// L：获取默认日志器；未初始化则回退到 Setup
func L() *slog.Logger {
	mu.Lock()
	l := defaultLogger
	mu.Unlock()
	if l == nil {
		return Setup()
	}
	return l
}
