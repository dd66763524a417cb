package store

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"notamcore/internal/notam/models"
)

// Backend is the store a CachedStore fronts.
type Backend interface {
	LoadCycle(ctx context.Context, scope string) (*models.Cycle, error)
	SaveCycle(ctx context.Context, scope string, cycle *models.Cycle) error
	SetStatus(ctx context.Context, scope, key string, status models.Status) error
}

// CachedStore keeps recently loaded cycles in an expiring LRU so repeated
// reads of one scope skip the backend. Every write goes to the backend and
// drops the scope's entry, since the backend merges saves with statuses the
// cache has not seen.
//
// The cache is per process. With several replicas writing the same scope,
// keep the TTL short.
type CachedStore struct {
	next  Backend
	cache *expirable.LRU[string, *models.Cycle]
}

func NewCachedStore(next Backend, size int, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:  next,
		cache: expirable.NewLRU[string, *models.Cycle](size, nil, ttl),
	}
}

func (s *CachedStore) LoadCycle(ctx context.Context, scope string) (*models.Cycle, error) {
	if c, ok := s.cache.Get(scope); ok {
		cacheRequests.WithLabelValues("hit").Inc()
		return cloneCycle(c), nil
	}
	cacheRequests.WithLabelValues("miss").Inc()

	c, err := s.next.LoadCycle(ctx, scope)
	if err != nil {
		return nil, err
	}
	s.cache.Add(scope, cloneCycle(c))
	return c, nil
}

func (s *CachedStore) SaveCycle(ctx context.Context, scope string, cycle *models.Cycle) error {
	defer s.cache.Remove(scope)
	return s.next.SaveCycle(ctx, scope, cycle)
}

// SetStatus writes through and drops the cached cycle; the next load reads
// the backend.
func (s *CachedStore) SetStatus(ctx context.Context, scope, key string, status models.Status) error {
	defer s.cache.Remove(scope)
	return s.next.SetStatus(ctx, scope, key, status)
}
