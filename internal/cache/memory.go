package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process cache store with per-entry TTL. It backs tests and
// single-node deployments that run without Redis.
type Memory struct {
	mu         sync.RWMutex
	items      map[string]memoryItem
	defaultTTL time.Duration
	maxItems   int
	counters   counters
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// NewMemory creates an in-memory store with the given default TTL.
func NewMemory(defaultTTL time.Duration, maxItems int) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = time.Hour
	}
	if maxItems <= 0 {
		maxItems = 10000
	}
	return &Memory{
		items:      make(map[string]memoryItem),
		defaultTTL: defaultTTL,
		maxItems:   maxItems,
	}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || time.Now().After(item.expiresAt) {
		m.counters.miss()
		return nil, false
	}

	m.counters.hit()
	return item.value, true
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.items) >= m.maxItems {
		m.evictExpired()
	}

	m.items[key] = memoryItem{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return true
}

// MGet implements Store.
func (m *Memory) MGet(_ context.Context, keys []string) map[string][]byte {
	now := time.Now()
	results := make(map[string][]byte)

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, key := range keys {
		item, ok := m.items[key]
		if ok && now.Before(item.expiresAt) {
			results[key] = item.value
			m.counters.hit()
		} else {
			m.counters.miss()
		}
	}
	return results
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return true
}

// FlushAll implements Store.
func (m *Memory) FlushAll(_ context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]memoryItem)
	return true
}

// Stats implements Store.
func (m *Memory) Stats(_ context.Context) Stats {
	m.mu.RLock()
	total := int64(len(m.items))
	m.mu.RUnlock()

	return Stats{
		Hits:      m.counters.hits.Load(),
		Misses:    m.counters.misses.Load(),
		Enabled:   true,
		Connected: true,
		TotalKeys: total,
	}
}

// evictExpired drops expired entries; must be called with the lock held.
func (m *Memory) evictExpired() {
	now := time.Now()
	for key, item := range m.items {
		if now.After(item.expiresAt) {
			delete(m.items, key)
		}
	}
}
