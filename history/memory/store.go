// Package memory provides an in-memory history store for tests and dry
// runs against a blank history.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/getpup/sqlshift"
	"github.com/getpup/sqlshift/history"
)

// Store is an in-memory implementation of history.Store. Thread-safe via a
// sync.RWMutex.
type Store struct {
	mu      sync.RWMutex
	entries map[sqlshift.Identity]history.Entry
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{entries: make(map[sqlshift.Identity]history.Entry)}
}

// Find returns the record for an identity, and whether one exists.
func (s *Store) Find(ctx context.Context, id sqlshift.Identity) (history.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	return e, ok, nil
}

// Record persists an entry, replacing any existing record for the identity.
func (s *Store) Record(ctx context.Context, e history.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[e.Identity()] = e
	return nil
}

// Remove deletes the record for an identity.
func (s *Store) Remove(ctx context.Context, id sqlshift.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	return nil
}

// Entries returns all records ordered by execution order.
func (s *Store) Entries(ctx context.Context) ([]history.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]history.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExecOrder < out[j].ExecOrder })
	return out, nil
}
