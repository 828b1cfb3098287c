package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/trainforge-backend/internal/llm"
)

type memoryEntry struct {
	turns   []llm.Message
	expires time.Time
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// MemoryStore is process-local; transcripts do not survive restarts or span processes.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*memoryEntry
	locks   map[string]*keyLock
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*memoryEntry),
		locks:   make(map[string]*keyLock),
	}
}

func (s *MemoryStore) History(ctx context.Context, key string) ([]llm.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, key)
		return nil, nil
	}
	out := make([]llm.Message, len(e.turns))
	copy(out, e.turns)
	return out, nil
}

func (s *MemoryStore) Append(ctx context.Context, key string, turns ...llm.Message) error {
	if len(turns) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e, ok := s.entries[key]
	if !ok || !now.Before(e.expires) {
		e = &memoryEntry{}
		s.entries[key] = e
	}
	e.turns = append(e.turns, turns...)
	e.expires = now.Add(s.ttl)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryStore) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l := s.acquireRef(key)
	defer s.releaseRef(key, l)

	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.sem }()
	return fn(ctx)
}

func (s *MemoryStore) acquireRef(key string) *keyLock {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &keyLock{sem: make(chan struct{}, 1)}
		s.locks[key] = l
	}
	l.refs++
	return l
}

func (s *MemoryStore) releaseRef(key string, l *keyLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, key)
	}
}
