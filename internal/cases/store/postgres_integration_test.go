//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"transferdesk/internal/cases/models"
	"transferdesk/internal/cases/store"
	"transferdesk/internal/scope"
	"transferdesk/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "transfer_cases"))
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	c := newCase("70000001", withScore(12.25), withNationalID("0011223344"))
	s.Require().NoError(s.store.Create(ctx, c))

	got, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.PersonnelCode, got.PersonnelCode)
	s.Equal(c.DestinationPriorities, got.DestinationPriorities)
	s.Require().NotNil(got.ApprovedScore)
	s.InDelta(12.25, *got.ApprovedScore, 0.0001)
	s.Require().Len(got.AuditTrail, 1)
	s.Equal(models.EntryCreated, got.AuditTrail[0].Kind)
}

func (s *PostgresStoreSuite) TestUniqueKeys() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newCase("71000001", withNationalID("55556666"))))

	s.ErrorIs(s.store.Create(ctx, newCase("71000001")), store.ErrPersonnelCodeTaken)
	s.ErrorIs(s.store.Create(ctx, newCase("71000002", withNationalID("55556666"))), store.ErrNationalIDTaken)
	s.NoError(s.store.Create(ctx, newCase("71000003")))
	s.NoError(s.store.Create(ctx, newCase("71000004")))
}

// TestConcurrentExecute verifies that row locking serializes writers so no
// audit entry is lost.
func (s *PostgresStoreSuite) TestConcurrentExecute() {
	ctx := context.Background()
	c := newCase("72000001")
	s.Require().NoError(s.store.Create(ctx, c))

	const writers = 20
	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(ctx, c.ID, nil, func(c *models.Case) {
				c.AppendEntry(models.AuditEntry{Kind: models.EntryUpdated, Timestamp: time.Now().UTC()})
			})
			if err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Zero(failures.Load())
	got, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(int64(1+writers), got.Version)
	s.Len(got.AuditTrail, 1+writers)
}

func (s *PostgresStoreSuite) TestListAndLookup() {
	ctx := context.Background()
	a := newCase("73000001", withLocation("1001", "1001"), withCreatedAt(baseTime))
	a.FinalReason = "Spouse_employment approved"
	a.ApprovedClauses = "12,14"
	s.Require().NoError(s.store.Create(ctx, a))
	s.Require().NoError(s.store.Create(ctx, newCase("73000002", withLocation("1002", "1001"), withCreatedAt(baseTime.Add(time.Hour)))))
	s.Require().NoError(s.store.Create(ctx, newCase("73000003", withLocation("2001", "2001"), withCreatedAt(baseTime.Add(2*time.Hour)))))

	s.Run("province scope", func() {
		items, total, err := s.store.List(ctx, scope.Filter{Kind: scope.KindProvince, Codes: []string{"1001", "1002"}}, models.ListQuery{Page: 1, Limit: 10})
		s.Require().NoError(err)
		s.Equal(2, total)
		s.Equal("73000002", items[0].PersonnelCode)
	})

	s.Run("search by name and personnel code", func() {
		_, total, err := s.store.List(ctx, scope.All(), models.ListQuery{Q: "7300000", Page: 1, Limit: 10})
		s.Require().NoError(err)
		s.Equal(3, total)
	})

	s.Run("none scope", func() {
		_, total, err := s.store.List(ctx, scope.None("test"), models.ListQuery{Page: 1, Limit: 10})
		s.Require().NoError(err)
		s.Zero(total)
	})

	s.Run("lookup by clause and reason", func() {
		items, err := s.store.Lookup(ctx, scope.All(), models.LookupQuery{Clauses: []string{"14"}, FinalReason: "spouse_"})
		s.Require().NoError(err)
		s.Require().Len(items, 1)
		s.Equal(a.ID, items[0].ID)
	})
}

func (s *PostgresStoreSuite) TestRankAggregate() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newCase("74000001", withScore(90))))
	s.Require().NoError(s.store.Create(ctx, newCase("74000002", withScore(80), withStatus(models.StatusSourceReview))))
	s.Require().NoError(s.store.Create(ctx, newCase("74000003", withScore(70))))
	s.Require().NoError(s.store.Create(ctx, newCase("74000004")))
	s.Require().NoError(s.store.Create(ctx, newCase("74000005", withScore(99), withGender(models.GenderFemale))))

	counts, err := s.store.RankAggregate(ctx, models.PoolQuery{
		FieldCode:          "F1",
		SourceDistrictCode: "1001",
		Statuses:           []models.RequestStatus{models.StatusUserApproval, models.StatusSourceReview},
		Score:              75,
	})
	s.Require().NoError(err)
	s.Equal([]models.StatusCount{
		{Status: models.StatusUserApproval, Total: 3, Better: 2},
		{Status: models.StatusSourceReview, Total: 1, Better: 1},
	}, counts)
}
