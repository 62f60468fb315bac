// Package store keeps completed generation results in memory for the
// lifetime of the process. There is no persistence: multiple server
// instances do not share results.
package store

import (
	"sort"
	"sync"

	"github.com/orusmind/orus-builder/internal/spec"
)

// ResultStore is a mutex-guarded map of job ID to generation result. The
// original runtime relied on single-threaded execution for map safety; here
// concurrent requests are real threads, so access is locked.
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]*spec.GenerationResult
}

// NewResultStore returns an empty store.
func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]*spec.GenerationResult)}
}

// Put stores a result under its job ID, replacing any previous entry.
func (s *ResultStore) Put(jobID string, result *spec.GenerationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[jobID] = result
}

// Get returns the stored result and whether it exists.
func (s *ResultStore) Get(jobID string) (*spec.GenerationResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[jobID]
	return r, ok
}

// Delete removes a stored result.
func (s *ResultStore) Delete(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, jobID)
}

// JobIDs lists stored job IDs in sorted order.
func (s *ResultStore) JobIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.results))
	for id := range s.results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
