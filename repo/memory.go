package repo

import (
	"context"
	"sync"
)

// MemoryStore keeps the whole tree in process memory. State is lost on
// restart.
type MemoryStore struct {
	mu   sync.RWMutex
	tree *tree
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tree: newTree()}
}

func (s *MemoryStore) Get(_ context.Context, key string, dst any) error {
	path, err := SplitKey(key)
	if err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.get(path, dst)
}

func (s *MemoryStore) Put(_ context.Context, key string, value any) error {
	path, err := SplitKey(key)
	if err != nil {
		return err
	}
	v, err := toJSONValue(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.set(path, v)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	path, err := SplitKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.delete(path)
	return nil
}
