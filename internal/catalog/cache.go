package catalog

import (
	"container/list"
	"sync"
	"time"

	"choromap/internal/geo"
	"choromap/internal/warn"
)

// entry：一次规范化的结果
type entry struct {
	geography *geo.Geography
	warnings  []warn.Warning
}

// 文档注释：本地 LRU 缓存（源文件内容哈希为键）
// 背景：同一地图反复切换时避免重复解析与拓扑解码；Geography 只读，可在多次加载间共享。
// 约束：容量与 TTL 由调用方给定；过期条目在读取时惰性删除。
type LRU struct {
	mu   sync.Mutex
	cap  int
	ttl  time.Duration
	lst  *list.List
	dict map[string]*list.Element
	now  func() time.Time
}

type kv struct {
	k   string
	v   entry
	exp time.Time
}

func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRU{cap: capacity, ttl: ttl, lst: list.New(), dict: make(map[string]*list.Element), now: time.Now}
}

func (c *LRU) Get(k string) (entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.dict[k]; ok {
		it := e.Value.(kv)
		if c.now().Before(it.exp) {
			c.lst.MoveToFront(e)
			return it.v, true
		}
		c.lst.Remove(e)
		delete(c.dict, k)
	}
	return entry{}, false
}

func (c *LRU) Set(k string, v entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := c.now().Add(c.ttl)
	if e, ok := c.dict[k]; ok {
		e.Value = kv{k: k, v: v, exp: exp}
		c.lst.MoveToFront(e)
		return
	}
	c.dict[k] = c.lst.PushFront(kv{k: k, v: v, exp: exp})
	for c.lst.Len() > c.cap {
		back := c.lst.Back()
		if back == nil {
			break
		}
		delete(c.dict, back.Value.(kv).k)
		c.lst.Remove(back)
	}
}

func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lst.Len()
}
