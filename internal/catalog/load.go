package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"choromap/internal/geo"
	"choromap/internal/logger"
	"choromap/internal/metrics"
	"choromap/internal/warn"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "choromap:geo:"

// Loaded：一次加载的结果
type Loaded struct {
	Config    MapConfig
	Geography *geo.Geography
	Warnings  []warn.Warning
	Cache     string // memory | redis | miss
}

// 文档注释：地图库
// 背景：两级缓存：进程内 LRU 在前，Redis 在后（多实例共享规范化结果）；键为源文件内容的 sha256，文件更新即自然失效。
// 约束：rdb 为 nil 时跳过 Redis；Redis 读写失败只记录日志，不影响加载。
type Catalog struct {
	dir  string
	maps []MapConfig
	byID map[string]MapConfig
	lru  *LRU
	rdb  *redis.Client
	ttl  time.Duration
	log  *slog.Logger
}

// New：内置地图 + 目录中的额外文件
func New(dir string, rdb *redis.Client, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := &Catalog{dir: dir, rdb: rdb, ttl: ttl, lru: NewLRU(16, ttl), byID: map[string]MapConfig{}, log: logger.L()}
	known := map[string]bool{}
	for _, m := range builtin {
		known[m.Filename] = true
		c.add(m)
	}
	for _, m := range discover(dir, known) {
		if _, dup := c.byID[m.ID]; dup {
			continue
		}
		c.add(m)
	}
	c.log.Info("catalog_ready", "dir", dir, "maps", len(c.maps), "redis", rdb != nil)
	return c
}

func (c *Catalog) add(m MapConfig) {
	c.maps = append(c.maps, m)
	c.byID[m.ID] = m
}

// List：全部地图；Available 标记源文件是否存在
func (c *Catalog) List() []Entry {
	out := make([]Entry, 0, len(c.maps))
	for _, m := range c.maps {
		_, err := os.Stat(c.path(m))
		out = append(out, Entry{MapConfig: m, Available: err == nil})
	}
	return out
}

// Entry：列表项
type Entry struct {
	MapConfig
	Available bool `json:"available"`
}

func (c *Catalog) Get(id string) (MapConfig, bool) {
	m, ok := c.byID[id]
	return m, ok
}

type cached struct {
	Geography json.RawMessage `json:"geography"`
	Warnings  []warn.Warning  `json:"warnings"`
}

// Load：读取并规范化地图；规范化失败的错误原样返回（FormatError / MissingIdentifierError）
func (c *Catalog) Load(ctx context.Context, id string) (*Loaded, error) {
	m, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMap, id)
	}
	raw, err := os.ReadFile(c.path(m))
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", m.Filename, err)
	}
	sum := sha256.Sum256(raw)
	key := hex.EncodeToString(sum[:])

	if e, ok := c.lru.Get(key); ok {
		metrics.GeoCacheHitsTotal.WithLabelValues("memory").Inc()
		return &Loaded{Config: m, Geography: e.geography, Warnings: e.warnings, Cache: "memory"}, nil
	}
	if e, ok := c.fromRedis(ctx, key); ok {
		metrics.GeoCacheHitsTotal.WithLabelValues("redis").Inc()
		c.lru.Set(key, e)
		return &Loaded{Config: m, Geography: e.geography, Warnings: e.warnings, Cache: "redis"}, nil
	}
	metrics.GeoCacheMissesTotal.Inc()
	start := time.Now()
	g, ws, err := geo.Normalize(raw)
	if err != nil {
		c.log.Warn("catalog_normalize_fail", "map", id, "err", err)
		return nil, err
	}
	c.log.Info("catalog_normalized", "map", id, "regions", g.Len(), "warnings", len(ws), "duration_ms", time.Since(start).Milliseconds())
	e := entry{geography: g, warnings: ws}
	c.lru.Set(key, e)
	c.toRedis(ctx, key, e)
	return &Loaded{Config: m, Geography: g, Warnings: ws, Cache: "miss"}, nil
}

func (c *Catalog) fromRedis(ctx context.Context, key string) (entry, bool) {
	if c.rdb == nil {
		return entry{}, false
	}
	b, err := c.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("catalog_redis_get_fail", "err", err)
		}
		return entry{}, false
	}
	var v cached
	if err := json.Unmarshal(b, &v); err != nil {
		c.log.Warn("catalog_redis_decode_fail", "err", err)
		return entry{}, false
	}
	g, _, err := geo.Normalize(v.Geography)
	if err != nil {
		c.log.Warn("catalog_redis_decode_fail", "err", err)
		return entry{}, false
	}
	return entry{geography: g, warnings: v.Warnings}, true
}

func (c *Catalog) toRedis(ctx context.Context, key string, e entry) {
	if c.rdb == nil {
		return
	}
	fc, err := e.geography.MarshalJSON()
	if err != nil {
		c.log.Warn("catalog_redis_encode_fail", "err", err)
		return
	}
	b, err := json.Marshal(cached{Geography: fc, Warnings: e.warnings})
	if err != nil {
		c.log.Warn("catalog_redis_encode_fail", "err", err)
		return
	}
	if err := c.rdb.Set(ctx, redisKeyPrefix+key, b, c.ttl).Err(); err != nil {
		c.log.Warn("catalog_redis_set_fail", "err", err)
	}
}
