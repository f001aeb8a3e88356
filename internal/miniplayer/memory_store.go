package miniplayer

import (
	"github.com/patrickmn/go-cache"
)

// MemoryStore 进程内存储，数据不过期
type MemoryStore struct {
	c *cache.Cache
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: cache.New(cache.NoExpiration, 0)}
}

func (s *MemoryStore) Load(key string) ([]byte, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, ErrNotFound
	}
	// 返回副本，调用方修改不影响存储内容
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryStore) Save(key string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	s.c.Set(key, buf, cache.NoExpiration)
	return nil
}
