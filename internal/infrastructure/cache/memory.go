package cache

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// MemoryStore is a simple in-memory key-value store with expiration
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*memoryItem
	clock clock.Clock
	stop  chan struct{}
	once  sync.Once
}

type memoryItem struct {
	value      string
	expireTime time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.New()
	}
	store := &MemoryStore{
		items: make(map[string]*memoryItem),
		clock: clk,
		stop:  make(chan struct{}),
	}

	// Start cleanup goroutine to remove expired items
	go store.cleanupExpired(5 * time.Minute)

	return store
}

// MarkSeen records key for ttl and reports whether it was already
// present. Used to drop redelivered webhook events.
func (ms *MemoryStore) MarkSeen(key string, ttl time.Duration) bool {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.clock.Now()
	if item, exists := ms.items[key]; exists && !now.After(item.expireTime) {
		return true
	}
	ms.items[key] = &memoryItem{value: "1", expireTime: now.Add(ttl)}
	return false
}

// Close stops the cleanup goroutine
func (ms *MemoryStore) Close() {
	ms.once.Do(func() { close(ms.stop) })
}

// cleanupExpired periodically removes expired items
func (ms *MemoryStore) cleanupExpired(every time.Duration) {
	ticker := ms.clock.Ticker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ms.stop:
			return
		case <-ticker.C:
			ms.purge()
		}
	}
}

func (ms *MemoryStore) purge() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.clock.Now()
	for key, item := range ms.items {
		if now.After(item.expireTime) {
			delete(ms.items, key)
		}
	}
}
