package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notamcore/internal/notam/models"
	"notamcore/pkg/platform/sentinel"
)

type countingBackend struct {
	*InMemoryStore
	loads   int
	saveErr error
}

func (b *countingBackend) LoadCycle(ctx context.Context, scope string) (*models.Cycle, error) {
	b.loads++
	return b.InMemoryStore.LoadCycle(ctx, scope)
}

func (b *countingBackend) SaveCycle(ctx context.Context, scope string, c *models.Cycle) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	return b.InMemoryStore.SaveCycle(ctx, scope, c)
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()

	t.Run("repeated loads hit the cache", func(t *testing.T) {
		backend := &countingBackend{InMemoryStore: NewInMemoryStore()}
		s := NewCachedStore(backend, 8, time.Minute)
		require.NoError(t, backend.InMemoryStore.SaveCycle(ctx, "crew-1", sampleCycle()))

		for range 3 {
			c, err := s.LoadCycle(ctx, "crew-1")
			require.NoError(t, err)
			assert.Equal(t, sampleCycle(), c)
		}
		assert.Equal(t, 1, backend.loads)
	})

	t.Run("save invalidates and the next load sees merged statuses", func(t *testing.T) {
		backend := &countingBackend{InMemoryStore: NewInMemoryStore()}
		s := NewCachedStore(backend, 8, time.Minute)
		require.NoError(t, s.SaveCycle(ctx, "crew-1", sampleCycle()))
		_, err := s.LoadCycle(ctx, "crew-1")
		require.NoError(t, err)

		require.NoError(t, backend.InMemoryStore.SetStatus(ctx, "crew-1", "B0001/24|QOBCE|LFPO|2024-03-16", models.StatusRead))
		require.NoError(t, s.SaveCycle(ctx, "crew-1", sampleCycle()))

		c, err := s.LoadCycle(ctx, "crew-1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusRead, c.Statuses["B0001/24|QOBCE|LFPO|2024-03-16"])
		assert.Equal(t, 2, backend.loads)
	})

	t.Run("callers cannot mutate cached cycles", func(t *testing.T) {
		s := NewCachedStore(&countingBackend{InMemoryStore: NewInMemoryStore()}, 8, time.Minute)
		require.NoError(t, s.SaveCycle(ctx, "crew-1", sampleCycle()))

		c, err := s.LoadCycle(ctx, "crew-1")
		require.NoError(t, err)
		c.Keys["X|QOBCE|LFPO|2024-03-17"] = struct{}{}

		again, err := s.LoadCycle(ctx, "crew-1")
		require.NoError(t, err)
		assert.Equal(t, sampleCycle(), again)
	})

	t.Run("set status invalidates", func(t *testing.T) {
		backend := &countingBackend{InMemoryStore: NewInMemoryStore()}
		s := NewCachedStore(backend, 8, time.Minute)
		require.NoError(t, s.SaveCycle(ctx, "crew-1", sampleCycle()))

		key := "B0001/24|QOBCE|LFPO|2024-03-16"
		require.NoError(t, s.SetStatus(ctx, "crew-1", key, models.StatusRead))

		c, err := s.LoadCycle(ctx, "crew-1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusRead, c.Statuses[key])
		assert.Equal(t, 1, backend.loads)
	})

	t.Run("failed save leaves nothing cached", func(t *testing.T) {
		backend := &countingBackend{InMemoryStore: NewInMemoryStore()}
		s := NewCachedStore(backend, 8, time.Minute)
		_, err := s.LoadCycle(ctx, "crew-1")
		require.NoError(t, err)

		backend.saveErr = fmt.Errorf("write: %w", sentinel.ErrUnavailable)
		err = s.SaveCycle(ctx, "crew-1", sampleCycle())
		assert.True(t, errors.Is(err, sentinel.ErrUnavailable))

		c, err := s.LoadCycle(ctx, "crew-1")
		require.NoError(t, err)
		assert.Empty(t, c.Keys)
		assert.Equal(t, 2, backend.loads)
	})

	t.Run("entries expire", func(t *testing.T) {
		backend := &countingBackend{InMemoryStore: NewInMemoryStore()}
		s := NewCachedStore(backend, 8, 10*time.Millisecond)
		_, err := s.LoadCycle(ctx, "crew-1")
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			_, _ = s.LoadCycle(ctx, "crew-1")
			return backend.loads > 1
		}, time.Second, 5*time.Millisecond)
	})
}
