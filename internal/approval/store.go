package approval

import (
	"context"
	"sync"
)

// Store maps a confirmation message id to the entry waiting on it.
//
// Take removes and returns an entry in one atomic step; of any number of
// concurrent Take calls for the same key, at most one reports found.
type Store[T any] interface {
	Put(ctx context.Context, key string, v T) error
	Peek(ctx context.Context, key string) (T, bool, error)
	Take(ctx context.Context, key string) (T, bool, error)
	Len(ctx context.Context) (int, error)
}

// MemoryStore is a process-local Store.
type MemoryStore[T any] struct {
	mu      sync.Mutex
	entries map[string]T
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{entries: make(map[string]T)}
}

func (s *MemoryStore[T]) Put(_ context.Context, key string, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = v
	return nil
}

func (s *MemoryStore[T]) Peek(_ context.Context, key string) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok, nil
}

func (s *MemoryStore[T]) Take(_ context.Context, key string) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	return v, ok, nil
}

func (s *MemoryStore[T]) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}
