// Package sharedmem is the Shared Memory component (C3): a request-scoped
// cache of per-(db,query) graph results and per-db agent answers, visible
// to every specialist and debate participant working the same request.
// Its key/value shape is grounded on serve/local_harness.go's
// inMemoryStore (an RWMutex-guarded map[string]any); bounding it with an
// LRU is new, since the teacher's in-memory store was unbounded — the
// bound is implemented with hashicorp/golang-lru/v2 rather than hand
// rolled, per the corpus-wide precedent for that concern.
package sharedmem

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SharedMemory is scoped to exactly one request. It must never be
// shared across requests or retained past the request's lifetime.
type SharedMemory struct {
	cache   *lru.Cache[string, string] // fingerprint -> serialized graph result
	mu      sync.RWMutex
	results map[string]string // db -> agent answer text
}

// New creates a SharedMemory bounded at capacity K.
func New(capacity int) (*SharedMemory, error) {
	if capacity <= 0 {
		capacity = 100
	}
	c, err := lru.New[string, string](capacity)
	if err != nil {
		return nil, err
	}
	return &SharedMemory{cache: c, results: make(map[string]string)}, nil
}

// Fingerprint normalizes db+cypher into the cache key used by
// GetCached/PutCached.
func Fingerprint(db, cypher string) string {
	normalized := strings.TrimRight(strings.TrimSpace(cypher), ";")
	sum := sha256.Sum256([]byte(db + "\x00" + normalized))
	return hex.EncodeToString(sum[:])
}

// GetCached returns the cached result for (db, cypher) and whether it
// was present.
func (s *SharedMemory) GetCached(db, cypher string) (string, bool) {
	return s.cache.Get(Fingerprint(db, cypher))
}

// PutCached stores result under the fingerprint of (db, cypher),
// evicting the least-recently-used entry if the cache is at capacity.
func (s *SharedMemory) PutCached(db, cypher, result string) {
	s.cache.Add(Fingerprint(db, cypher), result)
}

// PutResult records db's agent answer for this request.
func (s *SharedMemory) PutResult(db, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[db] = answer
}

// AllResults returns every agent answer recorded so far, keyed by db.
func (s *SharedMemory) AllResults() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.results))
	for k, v := range s.results {
		out[k] = v
	}
	return out
}
