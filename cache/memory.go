// Package cache provides caching implementations for Gatehouse role-path
// decisions. Token-path decisions are never cached.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/xraph/gatehouse"
	"github.com/xraph/gatehouse/rule"
)

// Compile-time interface check.
var _ gatehouse.Cache = (*Memory)(nil)

// Memory is an in-memory cache with TTL-based expiration.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int
}

type entry struct {
	result    *gatehouse.CheckResult
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		ttl:     5 * time.Minute,
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a cached enforcement result.
func (m *Memory) Get(_ context.Context, tenantID, userID, resource, action string) (*gatehouse.CheckResult, bool) {
	key := cacheKey(tenantID, userID, resource, action)
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, false
	}
	return e.result, true
}

// Set stores an enforcement result in the cache.
func (m *Memory) Set(_ context.Context, tenantID, userID, resource, action string, result *gatehouse.CheckResult) {
	key := cacheKey(tenantID, userID, resource, action)
	m.mu.Lock()
	defer m.mu.Unlock()

	// Evict if at capacity.
	if len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			m.evictOne()
		}
	}

	m.entries[key] = &entry{
		result:    result,
		expiresAt: time.Now().Add(m.ttl),
	}
}

// InvalidateTenant removes all cached results for a tenant. The global
// domain flushes everything: a global rule change affects every tenant.
func (m *Memory) InvalidateTenant(_ context.Context, tenantID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tenantID == rule.GlobalTenant {
		m.entries = make(map[string]*entry)
		return
	}
	prefix := tenantID + "\x00"
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
}

// InvalidateUser removes all cached results for a user in a tenant.
func (m *Memory) InvalidateUser(_ context.Context, tenantID, userID string) {
	prefix := tenantID + "\x00" + userID + "\x00"
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
}

// Len returns the number of live entries, expired included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// cacheKey joins the parts with NUL so user IDs containing ':' cannot
// collide across keys.
func cacheKey(tenantID, userID, resource, action string) string {
	return tenantID + "\x00" + userID + "\x00" + resource + "\x00" + action
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes one arbitrary entry. Must hold write lock.
func (m *Memory) evictOne() {
	for k := range m.entries {
		delete(m.entries, k)
		return
	}
}
