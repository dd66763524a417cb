//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"notamcore/internal/notam/models"
	"notamcore/internal/notam/store"
	"notamcore/pkg/platform/sentinel"
	"notamcore/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = store.NewRedisStore(s.redis.Client, store.WithTTL(time.Hour))
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestMissingScopeIsEmpty() {
	c, err := s.store.LoadCycle(context.Background(), "nobody")
	s.Require().NoError(err)
	s.Empty(c.Keys)
	s.Empty(c.Statuses)
}

func (s *RedisStoreSuite) TestRoundTripAndReplace() {
	ctx := context.Background()
	first := models.NewCycle()
	first.Keys["A1|QMRLC|LFPG|2024-03-15"] = struct{}{}
	first.Keys["B2|QOBCE|LFPO|2024-03-15"] = struct{}{}
	first.Statuses["A1|QMRLC|LFPG|2024-03-15"] = models.StatusRead

	s.Require().NoError(s.store.SaveCycle(ctx, "crew-1", first))
	got, err := s.store.LoadCycle(ctx, "crew-1")
	s.Require().NoError(err)
	s.Equal(first, got)

	second := models.NewCycle()
	second.Keys["C3|QFHAW|LFPB|2024-03-16"] = struct{}{}
	s.Require().NoError(s.store.SaveCycle(ctx, "crew-1", second))
	got, err = s.store.LoadCycle(ctx, "crew-1")
	s.Require().NoError(err)
	s.Equal(second, got)
}

func (s *RedisStoreSuite) TestSetStatusAppliesTTL() {
	ctx := context.Background()
	s.Require().NoError(s.store.SetStatus(ctx, "crew-1", "A1|QMRLC|LFPG|2024-03-15", models.StatusImportant))

	got, err := s.store.LoadCycle(ctx, "crew-1")
	s.Require().NoError(err)
	s.Equal(models.StatusImportant, got.Statuses["A1|QMRLC|LFPG|2024-03-15"])

	ttl, err := s.redis.Client.TTL(ctx, "notam:status:crew-1").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisStoreSuite) TestCorruptStatusIsAnError() {
	ctx := context.Background()
	s.Require().NoError(s.redis.Client.HSet(ctx, "notam:status:crew-1", "k", "bogus").Err())

	_, err := s.store.LoadCycle(ctx, "crew-1")
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *RedisStoreSuite) TestScopesAreIsolated() {
	ctx := context.Background()
	c := models.NewCycle()
	c.Keys["A1|QMRLC|LFPG|2024-03-15"] = struct{}{}
	c.Statuses["A1|QMRLC|LFPG|2024-03-15"] = models.StatusRead
	s.Require().NoError(s.store.SaveCycle(ctx, "crew-1", c))

	keys, err := s.redis.ScopeKeys(ctx, "crew-1")
	s.Require().NoError(err)
	s.ElementsMatch([]string{"notam:keys:crew-1", "notam:status:crew-1"}, keys)

	other, err := s.redis.ScopeKeys(ctx, "crew-2")
	s.Require().NoError(err)
	s.Empty(other)
}

func (s *RedisStoreSuite) TestSaveKeepsStatusesRecordedSinceLoad() {
	ctx := context.Background()
	kept := "A1|QMRLC|LFPG|2024-03-15"
	dropped := "B2|QOBCE|LFPO|2024-03-15"

	first := models.NewCycle()
	first.Keys[kept] = struct{}{}
	first.Keys[dropped] = struct{}{}
	s.Require().NoError(s.store.SaveCycle(ctx, "crew-1", first))
	s.Require().NoError(s.store.SetStatus(ctx, "crew-1", kept, models.StatusRead))
	s.Require().NoError(s.store.SetStatus(ctx, "crew-1", dropped, models.StatusImportant))

	next := models.NewCycle()
	next.Keys[kept] = struct{}{}
	s.Require().NoError(s.store.SaveCycle(ctx, "crew-1", next))

	got, err := s.store.LoadCycle(ctx, "crew-1")
	s.Require().NoError(err)
	s.Equal(map[string]models.Status{kept: models.StatusRead}, got.Statuses)
}
