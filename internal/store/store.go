// Package store is the key-value capability used to remember the product and
// brand between runs. The report pipeline reads it at call time only.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ppiankov/foresight/internal/model"
)

// Store defines the key-value interface
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Well-known keys
const (
	KeyProduct = "product_name"
	KeyBrand   = "brand_name"
)

const keyPrefix = "foresight:v1:"

// Key namespaces a store key
func Key(name string) string {
	return keyPrefix + name
}

// fileName maps a key onto a filesystem-safe name
func fileName(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

// New builds the store selected by cfg
func New(cfg model.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(cfg.TTL, 10*time.Minute), nil
	case "disk":
		return NewDiskStore(cfg.Dir, cfg.TTL), nil
	case "layered":
		return NewLayeredStore(cfg.TTL, cfg.Dir, cfg.TTL), nil
	case "redis":
		return NewRedisStore(cfg.RedisAddr, cfg.RedisDB, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: memory, disk, layered, redis)", cfg.Backend)
	}
}
