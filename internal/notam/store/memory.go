// Package store persists per-scope refresh cycle state: the identity keys
// a scope saw last and the statuses recorded against them.
package store

import (
	"context"
	"maps"
	"sync"

	"notamcore/internal/notam/models"
)

// InMemoryStore keeps cycles in process memory. Suitable for tests and
// single-instance deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	cycles map[string]*models.Cycle
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{cycles: make(map[string]*models.Cycle)}
}

// LoadCycle returns a copy of the scope's cycle, or an empty cycle when the
// scope has never been saved.
func (s *InMemoryStore) LoadCycle(_ context.Context, scope string) (*models.Cycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cycles[scope]
	if !ok {
		return models.NewCycle(), nil
	}
	return cloneCycle(c), nil
}

// SaveCycle replaces the scope's key set, writes cycle.Statuses, and drops
// stored statuses whose key left the set. Statuses recorded since the
// caller's LoadCycle survive.
func (s *InMemoryStore) SaveCycle(_ context.Context, scope string, cycle *models.Cycle) error {
	if cycle == nil {
		cycle = models.NewCycle()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := models.NewCycle()
	maps.Copy(next.Keys, cycle.Keys)
	if stored, ok := s.cycles[scope]; ok {
		maps.Copy(next.Statuses, stored.Statuses)
	}
	maps.Copy(next.Statuses, cycle.Statuses)
	pruneStatuses(next)
	s.cycles[scope] = next
	return nil
}

// SetStatus records a status against an identity key. The key does not need
// to belong to the last cycle.
func (s *InMemoryStore) SetStatus(_ context.Context, scope, key string, status models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cycles[scope]
	if !ok {
		c = models.NewCycle()
		s.cycles[scope] = c
	}
	c.Statuses[key] = status
	return nil
}

func cloneCycle(c *models.Cycle) *models.Cycle {
	out := models.NewCycle()
	maps.Copy(out.Keys, c.Keys)
	maps.Copy(out.Statuses, c.Statuses)
	return out
}

func pruneStatuses(c *models.Cycle) {
	maps.DeleteFunc(c.Statuses, func(k string, _ models.Status) bool {
		_, ok := c.Keys[k]
		return !ok
	})
}
