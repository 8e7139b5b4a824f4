package store

import (
	"context"
	"sync"
	"time"

	"github.com/rushteam/scenekit/core"
)

// MemoryStore 是内存实现的 core.Store，用于单实例部署与测试。
// 支持 TTL（过期时间），进程重启后数据丢失。
type MemoryStore struct {
	mu         sync.RWMutex
	data       map[string]entry
	maxEntries int
	clean      *time.Ticker
	done       chan struct{}
	closeOnce  sync.Once
}

type entry struct {
	value  []byte
	expire time.Time // 零值表示不过期
}

func (e entry) expired(now time.Time) bool {
	return !e.expire.IsZero() && now.After(e.expire)
}

// MemoryOption MemoryStore 配置选项
type MemoryOption func(*MemoryStore)

// WithMaxEntries 限制缓存条目数，满时淘汰最早过期的条目
func WithMaxEntries(n int) MemoryOption {
	return func(m *MemoryStore) { m.maxEntries = n }
}

// WithCleanupInterval 设置过期清理间隔，默认 10 秒
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(m *MemoryStore) {
		if d > 0 {
			m.clean.Reset(d)
		}
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	ms := &MemoryStore{
		data:  make(map[string]entry),
		clean: time.NewTicker(10 * time.Second),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ms)
	}
	go ms.cleanup()
	return ms
}

var _ core.Store = (*MemoryStore)(nil)

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok || e.expired(time.Now()) {
		return nil, core.ErrStoreNotFound
	}
	return e.value, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{value: append([]byte(nil), value...)}
	if len(ttl) > 0 && ttl[0] > 0 {
		e.expire = time.Now().Add(time.Duration(ttl[0]) * time.Second)
	}
	if _, exists := m.data[key]; !exists && m.maxEntries > 0 && len(m.data) >= m.maxEntries {
		m.evictLocked()
	}
	m.data[key] = e
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// Len 返回当前条目数（包括尚未清理的过期条目）
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *MemoryStore) Close() error {
	m.closeOnce.Do(func() {
		m.clean.Stop()
		close(m.done)
	})
	return nil
}

// evictLocked 先清理过期条目，仍然满时淘汰最早过期的一个（不过期的条目最后淘汰）
func (m *MemoryStore) evictLocked() {
	now := time.Now()
	m.removeExpiredLocked(now)
	if len(m.data) < m.maxEntries {
		return
	}
	var victim string
	var victimExpire time.Time
	found := false
	for k, e := range m.data {
		if found && !expiresEarlier(e.expire, victimExpire) {
			continue
		}
		victim, victimExpire, found = k, e.expire, true
	}
	if found {
		delete(m.data, victim)
	}
}

// expiresEarlier 比较过期时间，零值视为永不过期
func expiresEarlier(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	return b.IsZero() || a.Before(b)
}

func (m *MemoryStore) removeExpiredLocked(now time.Time) {
	for k, e := range m.data {
		if e.expired(now) {
			delete(m.data, k)
		}
	}
}

func (m *MemoryStore) cleanup() {
	for {
		select {
		case <-m.clean.C:
			m.mu.Lock()
			m.removeExpiredLocked(time.Now())
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}
