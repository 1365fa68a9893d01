package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore 进程内会话表，基于 go-cache 的过期淘汰
type MemoryStore struct {
	c *cache.Cache
}

func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{c: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		m.c.Delete(s.ID)
		return nil
	}
	m.c.Set(s.ID, *s, ttl)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	v, found := m.c.Get(id)
	if !found {
		return nil, ErrSessionNotFound
	}
	s := v.(Session)
	if s.Expired(time.Now()) {
		m.c.Delete(id)
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.c.Delete(id)
	return nil
}
