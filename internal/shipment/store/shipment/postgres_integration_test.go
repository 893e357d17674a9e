//go:build integration

package shipment_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"exportdocs/internal/extraction"
	"exportdocs/internal/shipment/models"
	"exportdocs/internal/shipment/store/shipment"
	id "exportdocs/pkg/domain"
	"exportdocs/pkg/platform/sentinel"
	"exportdocs/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *shipment.PostgresStore
	org      id.OrganizationID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = shipment.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "outbox", "documents", "shipments"))
	s.org = id.NewOrganizationID()
}

func (s *PostgresStoreSuite) newShipment(reference, container string) *models.Shipment {
	weight := &extraction.Quantity{Value: 1000, Unit: extraction.UnitKilogram}
	sh, err := models.NewShipment(id.NewShipmentID(), s.org, reference, "090111", weight, container,
		id.NewActorID(), time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	return sh
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	sh := s.newShipment("EXP-100", "MSCU1234565")
	s.Require().NoError(s.store.Create(ctx, sh))

	found, err := s.store.FindByID(ctx, s.org, sh.ID)
	s.Require().NoError(err)
	s.Equal(sh.Reference, found.Reference)
	s.Equal(sh.CommodityCode, found.CommodityCode)
	s.Equal(*sh.DeclaredWeight, *found.DeclaredWeight)
	s.Equal(sh.DeclaredContainer, found.DeclaredContainer)
	s.Equal(sh.CreatedBy, found.CreatedBy)
	s.True(sh.CreatedAt.Equal(found.CreatedAt))

	_, err = s.store.FindByID(ctx, id.NewOrganizationID(), sh.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConcurrentUniqueReference() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var created, conflicts atomic.Int32
	for i := 0; i < goroutines; i++ {
		sh := s.newShipment("EXP-RACE", "")
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, sh)
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), created.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *PostgresStoreSuite) TestUpdateCompareAndSwap() {
	ctx := context.Background()
	sh := s.newShipment("EXP-200", "")
	s.Require().NoError(s.store.Create(ctx, sh))

	next := sh.Clone()
	next.ApplyStatus(models.StatusCompliant, time.Now().UTC())
	s.Require().NoError(s.store.Update(ctx, s.org, next, sh.Version))

	stale := sh.Clone()
	stale.ApplyStatus(models.StatusNonCompliant, time.Now().UTC())
	s.ErrorIs(s.store.Update(ctx, s.org, stale, sh.Version), sentinel.ErrStaleState)
	s.ErrorIs(s.store.Update(ctx, id.NewOrganizationID(), next, next.Version), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListPlaceholders() {
	ctx := context.Background()
	for _, c := range []string{"ACME-CNT-001", "MSCU1234565", "ACME CNT 002"} {
		s.Require().NoError(s.store.Create(ctx, s.newShipment("REF-"+c, c)))
	}

	page, err := s.store.ListPlaceholders(ctx, s.org, 0, 10)
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	for _, sh := range page {
		s.True(sh.HasPlaceholderContainer())
	}
}
