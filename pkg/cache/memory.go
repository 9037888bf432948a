package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryItem struct {
	data     []byte
	expireAt time.Time
	access   time.Time
}

func (m *memoryItem) expired(now time.Time) bool {
	return now.After(m.expireAt)
}

// MemoryCache implements Service in process with LRU eviction.
type MemoryCache struct {
	mu         sync.Mutex
	data       map[string]*memoryItem
	maxSize    int
	defaultTTL time.Duration
	now        func() time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewMemoryCache creates an in-memory cache and starts its cleanup loop.
// Close stops the loop.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize:         1000,
		CleanupInterval: 5 * time.Minute,
		DefaultTTL:      time.Hour,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	mc := &MemoryCache{
		data:       make(map[string]*memoryItem),
		maxSize:    cfg.MaxSize,
		defaultTTL: cfg.DefaultTTL,
		now:        time.Now,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	go mc.cleanupLoop(cfg.CleanupInterval)
	return mc
}

func (mc *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if expiration <= 0 {
		expiration = mc.defaultTTL
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	if _, exists := mc.data[key]; !exists && len(mc.data) >= mc.maxSize {
		mc.evictLRU()
	}
	mc.data[key] = &memoryItem{data: data, expireAt: now.Add(expiration), access: now}
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	mc.mu.Lock()
	now := mc.now()
	item, exists := mc.data[key]
	if !exists || item.expired(now) {
		if exists {
			delete(mc.data, key)
		}
		mc.mu.Unlock()
		return ErrCacheMiss
	}
	item.access = now
	data := item.data
	mc.mu.Unlock()

	return json.Unmarshal(data, dest)
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, key := range keys {
		delete(mc.data, key)
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	for _, key := range keys {
		if item, ok := mc.data[key]; ok && !item.expired(now) {
			return true, nil
		}
	}
	return false, nil
}

func (mc *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.now()
	if item, ok := mc.data[key]; ok && !item.expired(now) {
		return false, nil
	}
	mc.data[key] = &memoryItem{data: []byte(`"locked"`), expireAt: now.Add(ttl), access: now}
	return true, nil
}

func (mc *MemoryCache) Unlock(ctx context.Context, key string) error {
	return mc.Delete(ctx, key)
}

// Len reports the number of stored entries, expired or not.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.data)
}

func (mc *MemoryCache) evictLRU() {
	var oldestKey string
	var oldest time.Time

	for key, item := range mc.data {
		if oldestKey == "" || item.access.Before(oldest) {
			oldest = item.access
			oldestKey = key
		}
	}

	if oldestKey != "" {
		delete(mc.data, oldestKey)
	}
}

func (mc *MemoryCache) cleanupLoop(interval time.Duration) {
	defer close(mc.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-mc.stop:
			return
		case <-ticker.C:
			mc.mu.Lock()
			now := mc.now()
			for key, item := range mc.data {
				if item.expired(now) {
					delete(mc.data, key)
				}
			}
			mc.mu.Unlock()
		}
	}
}

// Close stops the cleanup loop.
func (mc *MemoryCache) Close() error {
	mc.once.Do(func() {
		close(mc.stop)
		<-mc.done
	})
	return nil
}
