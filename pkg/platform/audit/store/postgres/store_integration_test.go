//go:build integration

package postgres_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "transferdesk/pkg/domain"
	audit "transferdesk/pkg/platform/audit"
	"transferdesk/pkg/platform/audit/store/postgres"
	"transferdesk/pkg/platform/tx"
	"transferdesk/pkg/testutil/containers"
)

type AuditStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.postgres.DB)
}

func (s *AuditStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_events"))
}

func (s *AuditStoreSuite) TestAppendAndList() {
	ctx := context.Background()
	caseID := id.NewCaseID()
	base := time.Now().UTC().Truncate(time.Millisecond)

	payload, err := json.Marshal(map[string]string{"personnel_code": "12345678"})
	s.Require().NoError(err)

	s.Require().NoError(s.store.Append(ctx, audit.Event{
		CaseID: caseID, Action: string(audit.EventCaseCreated), Timestamp: base, Payload: payload,
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		CaseID: caseID, Action: string(audit.EventCaseDeleted), Timestamp: base.Add(time.Second),
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Action: string(audit.EventImportCompleted), Timestamp: base.Add(2 * time.Second),
	}))

	events, err := s.store.ListByCase(ctx, caseID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventCaseCreated), events[0].Action)
	s.Equal(audit.CategoryCompliance, events[0].Category)
	s.JSONEq(string(payload), string(events[0].Payload))

	recent, err := s.store.ListRecent(ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Equal(string(audit.EventImportCompleted), recent[0].Action)
	s.True(recent[0].CaseID.IsNil())
}

func (s *AuditStoreSuite) TestAppendJoinsTransaction() {
	ctx := context.Background()
	caseID := id.NewCaseID()
	runner := tx.NewRunner(s.postgres.DB)

	err := runner.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.Append(txCtx, audit.Event{CaseID: caseID, Action: string(audit.EventCaseUpdated), Timestamp: time.Now()}); err != nil {
			return err
		}
		return context.Canceled
	})
	s.Require().ErrorIs(err, context.Canceled)

	events, err := s.store.ListByCase(ctx, caseID)
	s.Require().NoError(err)
	s.Empty(events, "rolled back transaction must not leave audit rows")
}
