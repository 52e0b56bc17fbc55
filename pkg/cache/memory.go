package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const defaultMemoryTTL = 24 * time.Hour

type memoryEntry struct {
	data     []byte
	expireAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return now.After(e.expireAt)
}

// MemoryCache implements Service with an in-process store. Values are
// kept JSON-encoded so Get behaves the same as the Redis backend, and
// the oldest-accessed entry is evicted once the size cap is reached.
type MemoryCache struct {
	mu            sync.Mutex
	entries       map[string]*memoryEntry
	lastAccess    map[string]time.Time
	maxSize       int
	cleanupTicker *time.Ticker
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		entries:       make(map[string]*memoryEntry),
		lastAccess:    make(map[string]time.Time),
		maxSize:       cfg.MaxSize,
		cleanupTicker: time.NewTicker(cfg.CleanupInterval),
	}
	go mc.reapLoop()
	return mc
}

func encodeValue(value interface{}) ([]byte, error) {
	if s, ok := value.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(value)
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encodeValue(value)
	if err != nil {
		return err
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if len(mc.entries) >= mc.maxSize {
		mc.evictOldest()
	}

	if expiration <= 0 {
		expiration = defaultMemoryTTL
	}
	mc.entries[key] = &memoryEntry{data: data, expireAt: time.Now().Add(expiration)}
	mc.lastAccess[key] = time.Now()
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()

	entry, ok := mc.entries[key]
	if !ok || entry.expired(time.Now()) {
		if ok {
			delete(mc.entries, key)
			delete(mc.lastAccess, key)
		}
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	mc.lastAccess[key] = time.Now()
	data := entry.data
	mc.mu.Unlock()

	if strPtr, ok := dest.(*string); ok {
		*strPtr = string(data)
		return nil
	}
	return json.Unmarshal(data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, key := range keys {
		delete(mc.entries, key)
		delete(mc.lastAccess, key)
	}
	return nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if entry, ok := mc.entries[key]; ok && !entry.expired(time.Now()) {
		return false, nil
	}
	mc.entries[key] = &memoryEntry{data: []byte("locked"), expireAt: time.Now().Add(ttl)}
	return true, nil
}

func (mc *MemoryCache) Unlock(ctx context.Context, key string) error {
	return mc.Delete(ctx, key)
}

// evictOldest removes the least recently accessed entry. Caller holds mu.
func (mc *MemoryCache) evictOldest() {
	var oldestKey string
	oldest := time.Now()
	for key, at := range mc.lastAccess {
		if at.Before(oldest) {
			oldest = at
			oldestKey = key
		}
	}
	if oldestKey != "" {
		delete(mc.entries, oldestKey)
		delete(mc.lastAccess, oldestKey)
	}
}

func (mc *MemoryCache) reapLoop() {
	for range mc.cleanupTicker.C {
		mc.mu.Lock()
		now := time.Now()
		for key, entry := range mc.entries {
			if entry.expired(now) {
				delete(mc.entries, key)
				delete(mc.lastAccess, key)
			}
		}
		mc.mu.Unlock()
	}
}

// Close stops the cleanup ticker.
func (mc *MemoryCache) Close() error {
	if mc.cleanupTicker != nil {
		mc.cleanupTicker.Stop()
	}
	return nil
}
