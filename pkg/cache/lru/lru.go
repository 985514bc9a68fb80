// Package lru 带过期时间的进程内 LRU 缓存
package lru

import (
	"container/list"
	"sync"
	"time"

	"github.com/lk2023060901/lifesim/pkg/config"
)

// Config LRU 配置
type Config struct {
	// MaxSize 最大条目数
	MaxSize int `mapstructure:"max_size"`
	// DefaultTTL 默认过期时间
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	// CleanupInterval 后台清理间隔，负值表示不启动清理协程，仅在读取时淘汰
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxSize:         10000,
		DefaultTTL:      5 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// LRU 基于双向链表与 map 的 LRU 缓存，并发安全
type LRU[K comparable, V any] struct {
	config *Config
	ll     *list.List
	items  map[K]*list.Element
	mu     sync.Mutex

	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once

	onEvict func(key K, value V)
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// Option LRU 配置选项
type Option[K comparable, V any] func(*LRU[K, V])

// WithOnEvict 设置淘汰回调，回调在持锁状态下执行，不能回调缓存自身
func WithOnEvict[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(c *LRU[K, V]) {
		c.onEvict = fn
	}
}

// New 创建 LRU 缓存，cfg 中的零值字段使用默认配置
func New[K comparable, V any](cfg *Config, opts ...Option[K, V]) (*LRU[K, V], error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}

	c := &LRU[K, V]{
		config: merged,
		ll:     list.New(),
		items:  make(map[K]*list.Element),
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if merged.CleanupInterval > 0 {
		c.wg.Add(1)
		go c.cleanupLoop()
	}
	return c, nil
}

func (c *LRU[K, V]) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *LRU[K, V]) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for e := c.ll.Back(); e != nil; {
		prev := e.Prev()
		if now.After(e.Value.(*entry[K, V]).expiresAt) {
			c.removeElement(e)
		}
		e = prev
	}
}

// Get 获取值，过期条目视为不存在
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}
	ent := elem.Value.(*entry[K, V])
	if time.Now().After(ent.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}
	c.ll.MoveToFront(elem)
	return ent.value, true
}

// Set 使用默认 TTL 写入
func (c *LRU[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.config.DefaultTTL)
}

// SetWithTTL 使用自定义 TTL 写入，超出容量时淘汰最久未使用的条目
func (c *LRU[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value, ttl)
}

// GetOrCreate 返回未过期的值，否则调用 create 并以默认 TTL 写入
// create 在持锁状态下执行
func (c *LRU[K, V]) GetOrCreate(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		if !time.Now().After(ent.expiresAt) {
			c.ll.MoveToFront(elem)
			return ent.value
		}
		c.removeElement(elem)
	}
	value := create()
	c.setLocked(key, value, c.config.DefaultTTL)
	return value
}

func (c *LRU[K, V]) setLocked(key K, value V, ttl time.Duration) {
	expiresAt := time.Now().Add(ttl)
	if elem, ok := c.items[key]; ok {
		c.ll.MoveToFront(elem)
		ent := elem.Value.(*entry[K, V])
		ent.value = value
		ent.expiresAt = expiresAt
		return
	}

	c.items[key] = c.ll.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})
	for c.ll.Len() > c.config.MaxSize {
		c.removeElement(c.ll.Back())
	}
}

// Delete 删除
func (c *LRU[K, V]) Delete(keys ...K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		if elem, ok := c.items[key]; ok {
			c.removeElement(elem)
		}
	}
}

// Len 当前条目数（含尚未清理的过期条目）
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Close 停止后台清理，可重复调用
func (c *LRU[K, V]) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopCh)
		c.wg.Wait()
	})
	return nil
}

func (c *LRU[K, V]) removeElement(elem *list.Element) {
	c.ll.Remove(elem)
	ent := elem.Value.(*entry[K, V])
	delete(c.items, ent.key)
	if c.onEvict != nil {
		c.onEvict(ent.key, ent.value)
	}
}
