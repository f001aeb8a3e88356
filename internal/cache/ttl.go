package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// entry 缓存值及其过期时间
type entry[V any] struct {
	Value     V
	ExpiresAt time.Time
}

// TTL 带过期时间的 LRU 缓存
// 所有操作都显式传入当前时间，过期逻辑不依赖墙上时钟，便于测试
type TTL[K comparable, V any] struct {
	storage *lru.Cache[K, entry[V]]
	ttl     time.Duration
}

// NewTTL size 是最大缓存条数，ttl 是数据有效期
func NewTTL[K comparable, V any](size int, ttl time.Duration) (*TTL[K, V], error) {
	c, err := lru.New[K, entry[V]](size)
	if err != nil {
		return nil, err
	}
	return &TTL[K, V]{storage: c, ttl: ttl}, nil
}

// Set 写入或覆盖
func (c *TTL[K, V]) Set(key K, value V, now time.Time) {
	c.storage.Add(key, entry[V]{Value: value, ExpiresAt: now.Add(c.ttl)})
}

// Get 读取，过期条目会被删除
func (c *TTL[K, V]) Get(key K, now time.Time) (V, bool) {
	var zero V
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}
	if !now.Before(item.ExpiresAt) {
		c.storage.Remove(key)
		return zero, false
	}
	return item.Value, true
}

func (c *TTL[K, V]) Delete(key K) {
	c.storage.Remove(key)
}

// DeleteExpired 清理所有过期条目，返回清理数量
func (c *TTL[K, V]) DeleteExpired(now time.Time) int {
	removed := 0
	for _, key := range c.storage.Keys() {
		item, ok := c.storage.Peek(key)
		if ok && !now.Before(item.ExpiresAt) {
			c.storage.Remove(key)
			removed++
		}
	}
	return removed
}

func (c *TTL[K, V]) Purge() {
	c.storage.Purge()
}

func (c *TTL[K, V]) Len() int {
	return c.storage.Len()
}
