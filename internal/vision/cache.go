package vision

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Fingerprint derives the cache key for a document from its raw bytes.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Cache memoizes extraction results by document fingerprint. Concurrent
// requests for the same fingerprint trigger at most one underlying
// extraction (single-flight), so a paid model call is never duplicated.
// Cached results are treated as immutable by callers.
type Cache struct {
	group   singleflight.Group
	mu      sync.RWMutex
	results map[string]*Result
}

// NewCache creates an empty extraction cache.
func NewCache() *Cache {
	return &Cache{results: make(map[string]*Result)}
}

// Do returns the cached result for key or runs fn to compute it. Errors are
// not cached; a failed extraction may be retried by a later request.
func (c *Cache) Do(key string, fn func() (*Result, error)) (*Result, error) {
	c.mu.RLock()
	if res, ok := c.results[key]; ok {
		c.mu.RUnlock()
		return res, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		res, err := fn()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.results[key] = res
		c.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}
