package store

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps values in process memory
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a memory store; defaultTTL 0 keeps entries forever
func NewMemoryStore(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryStore {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	return &MemoryStore{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	if val, found := s.cache.Get(Key(key)); found {
		return val.([]byte), true, nil
	}
	return nil, false, nil
}

// Set stores a value; ttl 0 uses the default
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	s.cache.Set(Key(key), append([]byte(nil), value...), ttl)
	return nil
}

// Delete removes a value
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(Key(key))
	return nil
}

// Clear removes all values
func (s *MemoryStore) Clear(_ context.Context) error {
	s.cache.Flush()
	return nil
}
