package cache

import (
	"context"
	"sync"
	"time"

	"github.com/orris-inc/sessiongate/internal/domain/session"
	"github.com/orris-inc/sessiongate/internal/shared/biztime"
)

type memoryItem struct {
	value     string
	expiresAt time.Time
}

// MemorySessionStore is a process-local session.Store for single-instance
// deployments and tests. Expired keys are dropped lazily on read.
type MemorySessionStore struct {
	mu    sync.RWMutex
	items map[session.Key]memoryItem
	now   biztime.Clock
}

var _ session.Store = (*MemorySessionStore)(nil)

func NewMemorySessionStore() *MemorySessionStore {
	return NewMemorySessionStoreWithClock(biztime.NowUTC)
}

func NewMemorySessionStoreWithClock(now biztime.Clock) *MemorySessionStore {
	return &MemorySessionStore{
		items: make(map[session.Key]memoryItem),
		now:   now,
	}
}

func (s *MemorySessionStore) Get(ctx context.Context, key session.Key) (string, error) {
	s.mu.RLock()
	item, ok := s.items[key]
	s.mu.RUnlock()

	if !ok {
		return "", session.ErrKeyNotFound
	}
	if !item.expiresAt.IsZero() && !s.now().Before(item.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; a Put may have refreshed the key.
		if cur, ok := s.items[key]; ok && cur.expiresAt.Equal(item.expiresAt) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return "", session.ErrKeyNotFound
	}
	return item.value, nil
}

// Put stores value under key. A non-positive ttl means no expiry.
func (s *MemorySessionStore) Put(ctx context.Context, key session.Key, value string, ttl time.Duration) error {
	item := memoryItem{value: value}
	if ttl > 0 {
		item.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.items[key] = item
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Forget(ctx context.Context, key session.Key) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of keys held, including expired ones not yet read.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
