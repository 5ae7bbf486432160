package session

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	token     string
	expiresAt time.Time
}

// MemoryStore 单进程部署和测试使用，语义与 RedisStore 一致
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[uint64]entry
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[uint64]entry), now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, userID uint64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[userID] = entry{token: token, expiresAt: m.now().Add(UserTokenTTL)}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, userID uint64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(userID)
	if !ok {
		return "", ErrTokenNotFound
	}
	return e.token, nil
}

func (m *MemoryStore) Extend(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(userID)
	if !ok {
		return ErrTokenNotFound
	}
	e.expiresAt = m.now().Add(UserTokenTTL)
	m.tokens[userID] = e
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, userID)
	return nil
}

// live 调用方持锁
func (m *MemoryStore) live(userID uint64) (entry, bool) {
	e, ok := m.tokens[userID]
	if !ok {
		return entry{}, false
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.tokens, userID)
		return entry{}, false
	}
	return e, true
}
