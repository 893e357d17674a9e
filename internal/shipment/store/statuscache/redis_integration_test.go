//go:build integration

package statuscache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"exportdocs/internal/shipment/models"
	"exportdocs/internal/shipment/store/statuscache"
	id "exportdocs/pkg/domain"
	"exportdocs/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *statuscache.Cache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.cache = statuscache.NewRedis(s.redis.Client, statuscache.WithTTL(time.Second))
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestRoundTripAndExpiry() {
	ctx := context.Background()
	org, ship := id.NewOrganizationID(), id.NewShipmentID()
	summary := models.Summary{
		Status:  models.StatusNonCompliant,
		Missing: []id.DocumentType{id.DocumentDueDiligence},
	}

	s.cache.Put(ctx, org, ship, summary)
	got, ok := s.cache.Get(ctx, org, ship)
	s.Require().True(ok)
	s.Equal(summary.Status, got.Status)
	s.Equal(summary.Missing, got.Missing)

	s.Eventually(func() bool {
		_, ok := s.cache.Get(ctx, org, ship)
		return !ok
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *RedisCacheSuite) TestInvalidate() {
	ctx := context.Background()
	org, ship := id.NewOrganizationID(), id.NewShipmentID()

	s.cache.Put(ctx, org, ship, models.Summary{Status: models.StatusCompliant})
	s.cache.Invalidate(ctx, org, ship)

	_, ok := s.cache.Get(ctx, org, ship)
	s.False(ok)
}
