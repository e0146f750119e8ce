// Package identity assigns stable canonical keys to ingestion candidates so
// the same real-world object is never admitted twice across runs.
package identity

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ddanilov/poisk/internal/model"
)

// Resolver tracks which canonical keys have already been admitted. The seen
// set is loaded from the injected Store at construction and rewritten on
// every newly admitted key.
type Resolver struct {
	mu    sync.Mutex
	seen  map[string]bool
	store Store
}

// NewResolver creates a resolver backed by the given store.
func NewResolver(store Store) (*Resolver, error) {
	keys, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load seen keys: %w", err)
	}

	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}

	return &Resolver{seen: seen, store: store}, nil
}

// CanonicalKey computes the deterministic identity key for a candidate.
// Candidates with an external id key on it directly; the rest key on
// category plus coordinates rounded to 6 decimals (~0.11 m), so two distinct
// same-category objects closer than that collide by design. Returns
// ok=false when the candidate has neither an external id nor coordinates.
func CanonicalKey(c model.Candidate) (string, bool) {
	if c.ExternalID != "" {
		return "ext_" + c.ExternalID, true
	}
	if c.Coords == nil {
		return "", false
	}
	return fmt.Sprintf("%s_%.6f_%.6f", c.Category, c.Coords.Lat, c.Coords.Lng), true
}

// HasSeen reports whether the key was already admitted.
func (r *Resolver) HasSeen(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[key]
}

// MarkSeen records the key as admitted and persists the full seen set.
// Idempotent: marking an already-seen key does not rewrite the store.
func (r *Resolver) MarkSeen(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seen[key] {
		return nil
	}
	r.seen[key] = true

	keys := make([]string, 0, len(r.seen))
	for k := range r.seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if err := r.store.Save(keys); err != nil {
		// Roll back so a retry re-persists.
		delete(r.seen, key)
		return fmt.Errorf("persist seen keys: %w", err)
	}

	return nil
}

// Count returns the number of keys admitted so far.
func (r *Resolver) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
