package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/teemow/donna/internal/meeting"
)

const cleanupInterval = 10 * time.Minute

type entry struct {
	result    meeting.Result
	createdAt time.Time
}

// MemoryStore keeps results in process memory. Entries older than the TTL are
// ignored on read and swept periodically.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	stopCh  chan struct{}
	once    sync.Once
}

// NewMemoryStore creates a MemoryStore and starts its cleanup goroutine.
// Call Close to stop it.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}
	go s.cleanup()
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) (meeting.Result, bool, error) {
	k := hashKey(key)

	s.mu.RLock()
	e, ok := s.entries[k]
	s.mu.RUnlock()

	if !ok {
		return meeting.Result{}, false, nil
	}
	if time.Since(e.createdAt) > s.ttl {
		s.mu.Lock()
		delete(s.entries, k)
		s.mu.Unlock()
		return meeting.Result{}, false, nil
	}
	return e.result, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, result meeting.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[hashKey(key)] = entry{result: result, createdAt: time.Now()}
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.entries {
		if time.Since(e.createdAt) > s.ttl {
			delete(s.entries, k)
		}
	}
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stopCh) })
	return nil
}
