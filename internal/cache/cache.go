// Package cache provides the layered (memory + disk) cache backing region
// boundary resolution and other immutable lookups.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Forever disables expiration for an entry. Region boundaries are treated
// as immutable and cached with Forever.
const Forever time.Duration = -1

// Cache defines the interface for caching.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a stable cache key from a namespace and a lookup term.
func Key(namespace, term string) string {
	hash := sha256.Sum256([]byte(term))
	return "poisk:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}
