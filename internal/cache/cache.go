// Package cache stores fetched page bodies so repeated crawl runs do
// not re-hit government sites that throttle aggressively.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the storage interface shared by the memory and disk layers
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives the cache key for a URL. The version segment invalidates
// old entries when the stored format changes.
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "examwatch:v1:" + hex.EncodeToString(hash[:])
}
