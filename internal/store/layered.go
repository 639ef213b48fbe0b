package store

import (
	"context"
	"time"
)

// LayeredStore reads through memory to disk and writes to both
type LayeredStore struct {
	memory Store
	disk   Store
}

// NewLayeredStore creates a memory-over-disk store
func NewLayeredStore(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredStore {
	return &LayeredStore{
		memory: NewMemoryStore(memoryTTL, 10*time.Minute),
		disk:   NewDiskStore(diskDir, diskTTL),
	}
}

// Get checks memory first, then disk
func (s *LayeredStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if val, found, _ := s.memory.Get(ctx, key); found {
		return val, true, nil
	}

	val, found, err := s.disk.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}

	// Promote to memory
	_ = s.memory.Set(ctx, key, val, 0)
	return val, true, nil
}

// Set stores a value in both layers
func (s *LayeredStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.memory.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return s.disk.Set(ctx, key, value, ttl)
}

// Delete removes a value from both layers
func (s *LayeredStore) Delete(ctx context.Context, key string) error {
	_ = s.memory.Delete(ctx, key)
	return s.disk.Delete(ctx, key)
}

// Clear removes all values from both layers
func (s *LayeredStore) Clear(ctx context.Context) error {
	_ = s.memory.Clear(ctx)
	return s.disk.Clear(ctx)
}
