//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"medix/internal/doctor/models"
	"medix/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.cache = NewRedisCache(s.redis.Client, time.Minute)
}

func (s *RedisCacheSuite) TestRoundTrip() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "all", []models.Doctor{{ID: "d1", FullName: "Dr. Silva", Verify: true}}))

	got, ok, err := s.cache.Get(ctx, "all")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal("Dr. Silva", got[0].FullName)
	s.True(got[0].Verify)
}

func (s *RedisCacheSuite) TestInvalidateHidesOldSnapshot() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "all", []models.Doctor{{ID: "d1"}}))

	s.Require().NoError(s.cache.Invalidate(ctx))

	_, ok, err := s.cache.Get(ctx, "all")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RedisCacheSuite) TestSharedBetweenInstances() {
	ctx := context.Background()
	other := NewRedisCache(s.redis.Client, time.Minute)
	s.Require().NoError(s.cache.Set(ctx, "all", []models.Doctor{{ID: "d1"}}))

	s.Require().NoError(other.Invalidate(ctx))

	_, ok, err := s.cache.Get(ctx, "all")
	s.Require().NoError(err)
	s.False(ok, "invalidation from one instance must be visible to all")
}

func (s *RedisCacheSuite) TestTTL() {
	ctx := context.Background()
	short := NewRedisCache(s.redis.Client, 100*time.Millisecond)
	s.Require().NoError(short.Set(ctx, "all", []models.Doctor{{ID: "d1"}}))

	time.Sleep(250 * time.Millisecond)

	_, ok, err := short.Get(ctx, "all")
	s.Require().NoError(err)
	s.False(ok)
}
