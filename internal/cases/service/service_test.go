package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks IdentityProvisioner,AuditPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"transferdesk/internal/cases/models"
	"transferdesk/internal/cases/service/mocks"
	"transferdesk/internal/cases/store"
	"transferdesk/internal/fields"
	"transferdesk/internal/geo/geotest"
	identitymodels "transferdesk/internal/identity/models"
	"transferdesk/internal/platform/metrics"
	"transferdesk/internal/scope"
	"transferdesk/pkg/domain"
	dErrors "transferdesk/pkg/domain-errors"
	audit "transferdesk/pkg/platform/audit"
	"transferdesk/pkg/platform/audit/publisher"
	auditmemory "transferdesk/pkg/platform/audit/store/memory"
	"transferdesk/pkg/requestcontext"
	"transferdesk/pkg/testutil"
)

// =============================================================================
// Case Service Test Suite
// =============================================================================
// Justification for unit tests: the service owns the scope gate, the
// transition protocol and the trail bookkeeping. Tests run against the
// in-memory store and registry; identity provisioning is mocked so failure
// paths can be forced.

type CaseServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	identities *mocks.MockIdentityProvisioner
	auditStore *auditmemory.InMemoryStore
	store      *store.InMemoryStore
	service    *Service
	ctx        context.Context
	now        time.Time
}

func TestCaseServiceSuite(t *testing.T) {
	suite.Run(t, new(CaseServiceSuite))
}

func (s *CaseServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.identities = mocks.NewMockIdentityProvisioner(s.ctrl)
	s.auditStore = auditmemory.NewInMemoryStore()
	s.store = store.NewInMemory()
	s.now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.service = s.newService()
}

func (s *CaseServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *CaseServiceSuite) newService(opts ...Option) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := geotest.Registry()
	catalog, err := fields.Default()
	s.Require().NoError(err)
	base := []Option{
		WithLogger(logger),
		WithMetrics(metrics.NewWithRegisterer(prometheus.NewRegistry())),
		WithIdentityProvisioner(s.identities),
		WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
		WithFieldCatalog(catalog),
	}
	svc, err := New(s.store, registry, scope.NewResolver(registry, logger), append(base, opts...)...)
	s.Require().NoError(err)
	return svc
}

func createRequest(personnelCode, nationalID string) models.CreateRequest {
	score := 80.0
	return models.CreateRequest{
		PersonnelCode:        personnelCode,
		NationalID:           nationalID,
		FirstName:            "Sara",
		LastName:             "Karimi",
		Phone:                "09120000000",
		EmploymentType:       "official",
		Gender:               "female",
		YearsOfService:       8,
		FieldCode:            "F1",
		ApprovedScore:        &score,
		CurrentWorkPlaceCode: "1001",
		SourceDistrictCode:   "1001",
		DestinationPriorities: []models.DestinationInput{
			{Code: "2001", TransferType: "permanent"},
		},
	}
}

// seed creates a case as super admin without identity provisioning.
func (s *CaseServiceSuite) seed(personnelCode string) *models.Case {
	c, err := s.service.Create(s.ctx, testutil.SuperAdmin(), createRequest(personnelCode, ""))
	s.Require().NoError(err)
	return c
}

func (s *CaseServiceSuite) moveTo(c *models.Case, statuses ...models.RequestStatus) *models.Case {
	for _, st := range statuses {
		var err error
		c, err = s.service.ChangeRequestStatus(s.ctx, testutil.SuperAdmin(), c.ID, models.StatusChangeRequest{To: string(st)})
		s.Require().NoError(err)
	}
	return c
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *CaseServiceSuite) TestNew() {
	registry := geotest.Registry()
	resolver := scope.NewResolver(registry, nil)

	_, err := New(nil, registry, resolver)
	s.ErrorContains(err, "case store is required")

	_, err = New(s.store, nil, resolver)
	s.ErrorContains(err, "geographic registry is required")

	_, err = New(s.store, registry, nil)
	s.ErrorContains(err, "scope resolver is required")
}

// =============================================================================
// Create
// =============================================================================

func (s *CaseServiceSuite) TestCreate() {
	s.Run("stores case with created entry and provisions identity", func() {
		s.identities.EXPECT().
			EnsureProvisioned(gomock.Any(), identitymodels.Profile{
				NationalID:    "0012345678",
				PersonnelCode: "12345678",
				FirstName:     "Sara",
				LastName:      "Karimi",
				Phone:         "09120000000",
			}).
			Return(true, nil)

		actor := testutil.DistrictAdmin("1001")
		c, err := s.service.Create(s.ctx, actor, createRequest("12345678", "0012345678"))
		s.Require().NoError(err)

		s.Equal(int64(1), c.Version)
		s.Equal(models.StatusNoAction, c.RequestStatus)
		s.Equal("Primary teacher", c.FieldTitle)
		s.Equal(actor.Label(), c.CreatedBy)
		s.Require().Len(c.AuditTrail, 1)
		s.Equal(models.EntryCreated, c.AuditTrail[0].Kind)
		s.Equal(s.now, c.AuditTrail[0].Timestamp)

		wf := c.Workflow()
		s.Require().Len(wf, 1)
		s.Empty(wf[0].PreviousStatus)

		events, err := s.auditStore.ListByCase(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(string(audit.EventCaseCreated), events[0].Action)
	})

	s.Run("initial status is recorded on the created entry", func() {
		req := createRequest("44444444", "")
		req.RequestStatus = "source_review"
		c, err := s.service.Create(s.ctx, testutil.DistrictAdmin("1001"), req)
		s.Require().NoError(err)

		s.Equal(models.StatusSourceReview, c.RequestStatus)
		wf := c.Workflow()
		s.Require().Len(wf, 1)
		s.Equal(models.StatusSourceReview, wf[0].Status)
		s.Empty(wf[0].PreviousStatus)

		moved, err := s.service.ChangeRequestStatus(s.ctx, testutil.DistrictAdmin("1001"), c.ID,
			models.StatusChangeRequest{To: string(models.StatusSourceApproved)})
		s.Require().NoError(err)
		s.Equal(models.StatusSourceApproved, moved.RequestStatus)
	})

	s.Run("unknown initial status is a validation error", func() {
		req := createRequest("44444445", "")
		req.RequestStatus = "archived"
		_, err := s.service.Create(s.ctx, testutil.SuperAdmin(), req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("applicant may not create", func() {
		_, err := s.service.Create(s.ctx, testutil.Applicant("0099887766"), createRequest("22222222", ""))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown district code is a validation error", func() {
		req := createRequest("33333333", "")
		req.DestinationPriorities = []models.DestinationInput{{Code: "9999", TransferType: "permanent"}}
		_, err := s.service.Create(s.ctx, testutil.SuperAdmin(), req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown field code is a validation error", func() {
		req := createRequest("33333334", "")
		req.FieldCode = "F99"
		_, err := s.service.Create(s.ctx, testutil.SuperAdmin(), req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("district admin outside scope is forbidden", func() {
		_, err := s.service.Create(s.ctx, testutil.DistrictAdmin("2001"), createRequest("44444444", ""))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("duplicate personnel code conflicts", func() {
		_, err := s.service.Create(s.ctx, testutil.SuperAdmin(), createRequest("12345678", ""))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("duplicate national id conflicts", func() {
		_, err := s.service.Create(s.ctx, testutil.SuperAdmin(), createRequest("55555555", "0012345678"))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *CaseServiceSuite) TestCreate_ProvisioningFailureKeepsCase() {
	s.identities.EXPECT().
		EnsureProvisioned(gomock.Any(), gomock.Any()).
		Return(false, errors.New("directory unavailable"))

	c, err := s.service.Create(s.ctx, testutil.SuperAdmin(), createRequest("12345678", "0012345678"))
	s.Require().NoError(err)

	stored, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.ID, stored.ID)

	events, err := s.auditStore.ListByCase(s.ctx, c.ID)
	s.Require().NoError(err)
	actions := make([]string, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	s.Contains(actions, string(audit.EventIdentityProvisionFailed))
}

func (s *CaseServiceSuite) TestCreate_ConcurrentDuplicates() {
	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Create(s.ctx, testutil.SuperAdmin(), createRequest("12345678", ""))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()
	s.Equal(1, successes)
	s.Equal(attempts-1, conflicts)
}

// =============================================================================
// Status transitions
// =============================================================================

func (s *CaseServiceSuite) TestChangeRequestStatus_RoundTripIsRecorded() {
	c := s.moveTo(s.seed("12345678"), models.StatusUserApproval)
	before := len(c.AuditLog())
	beforeWorkflow := len(c.Workflow())

	district := testutil.DistrictAdmin("1001")
	c, err := s.service.ChangeRequestStatus(s.ctx, district, c.ID, models.StatusChangeRequest{To: "source_review", Reason: "documents received"})
	s.Require().NoError(err)
	c, err = s.service.ChangeRequestStatus(s.ctx, district, c.ID, models.StatusChangeRequest{To: "user_approval", Reason: "missing signature"})
	s.Require().NoError(err)

	s.Equal(models.StatusUserApproval, c.RequestStatus)
	log := c.AuditLog()
	wf := c.Workflow()
	s.Len(log, before+2)
	s.Len(wf, beforeWorkflow+2)

	last := wf[len(wf)-1]
	s.Equal(models.StatusUserApproval, last.Status)
	s.Equal(models.StatusSourceReview, last.PreviousStatus)
	s.Equal("missing signature", last.Reason)
	s.Equal(models.StatusSourceReview, log[len(log)-1].FromStatus)
	s.Equal(models.StatusUserApproval, log[len(log)-1].ToStatus)
}

func (s *CaseServiceSuite) TestChangeRequestStatus_TrailInvariants() {
	c := s.moveTo(s.seed("12345678"),
		models.StatusUserApproval,
		models.StatusSourceReview,
		models.StatusSourceApproved,
		models.StatusProvinceReview,
	)

	wf := c.Workflow()
	s.Require().Len(wf, 5)
	s.Empty(wf[0].PreviousStatus)
	for i := 1; i < len(wf); i++ {
		s.Equal(wf[i-1].Status, wf[i].PreviousStatus)
	}
	for i := 1; i < len(c.AuditTrail); i++ {
		s.False(c.AuditTrail[i].Timestamp.Before(c.AuditTrail[i-1].Timestamp))
	}
	s.Equal(int64(5), c.Version)
}

func (s *CaseServiceSuite) TestChangeRequestStatus_Rejections() {
	c := s.seed("12345678")

	s.Run("out-of-table transition", func() {
		_, err := s.service.ChangeRequestStatus(s.ctx, testutil.DistrictAdmin("1001"), c.ID, models.StatusChangeRequest{To: "source_approved"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("self transition", func() {
		_, err := s.service.ChangeRequestStatus(s.ctx, testutil.SuperAdmin(), c.ID, models.StatusChangeRequest{To: "no_action"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("unknown status", func() {
		_, err := s.service.ChangeRequestStatus(s.ctx, testutil.SuperAdmin(), c.ID, models.StatusChangeRequest{To: "approved"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("stale version", func() {
		stale := int64(0)
		_, err := s.service.ChangeRequestStatus(s.ctx, testutil.SuperAdmin(), c.ID, models.StatusChangeRequest{To: "user_approval", ExpectedVersion: &stale})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("other district is forbidden", func() {
		_, err := s.service.ChangeRequestStatus(s.ctx, testutil.DistrictAdmin("2001"), c.ID, models.StatusChangeRequest{To: "user_approval"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("missing case", func() {
		_, err := s.service.ChangeRequestStatus(s.ctx, testutil.SuperAdmin(), domain.NewCaseID(), models.StatusChangeRequest{To: "user_approval"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("rejections leave the case untouched", func() {
		got, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(int64(1), got.Version)
		s.Len(got.AuditTrail, 1)
	})
}

func (s *CaseServiceSuite) TestChangeRequestStatus_Applicant() {
	s.identities.EXPECT().EnsureProvisioned(gomock.Any(), gomock.Any()).Return(true, nil)
	c, err := s.service.Create(s.ctx, testutil.SuperAdmin(), createRequest("12345678", "0012345678"))
	s.Require().NoError(err)

	_, err = s.service.ChangeRequestStatus(s.ctx, testutil.Applicant("0099999999"), c.ID, models.StatusChangeRequest{To: "user_approval"})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	owner := testutil.Applicant("0012345678")
	c, err = s.service.ChangeRequestStatus(s.ctx, owner, c.ID, models.StatusChangeRequest{To: "user_approval"})
	s.Require().NoError(err)
	s.Equal(models.StatusUserApproval, c.RequestStatus)
}

func (s *CaseServiceSuite) TestChangeRequestStatus_ConcurrentWritersKeepChain() {
	c := s.moveTo(s.seed("12345678"), models.StatusUserApproval, models.StatusSourceReview)

	targets := []string{"source_approved", "source_rejected", "invalid_request", "exception_eligibility_approval"}
	var wg sync.WaitGroup
	for _, to := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.service.ChangeRequestStatus(s.ctx, testutil.DistrictAdmin("1001"), c.ID, models.StatusChangeRequest{To: to})
		}()
	}
	wg.Wait()

	got, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	wf := got.Workflow()
	for i := 1; i < len(wf); i++ {
		s.Equal(wf[i-1].Status, wf[i].PreviousStatus)
	}
	s.Equal(wf[len(wf)-1].Status, got.RequestStatus)
}

// =============================================================================
// Update
// =============================================================================

func (s *CaseServiceSuite) TestUpdate() {
	c := s.seed("12345678")
	admin := testutil.SuperAdmin()

	s.Run("recognized fields get dedicated entries", func() {
		legacy := 2
		active := false
		updated, err := s.service.Update(s.ctx, admin, c.ID, models.UpdatePatch{LegacyStatus: &legacy, IsActive: &active})
		s.Require().NoError(err)

		trail := updated.AuditTrail
		s.Require().Len(trail, 3)
		s.Equal(models.EntryLegacyStatusChange, trail[1].Kind)
		s.Contains(trail[1].Comment, "awaiting review")
		s.Contains(trail[1].Comment, "transferred")
		s.Equal(models.EntryActivationChange, trail[2].Kind)
		s.Contains(trail[2].Comment, "inactive")
		s.Len(updated.Workflow(), 1)
		s.Equal(int64(2), updated.Version)
	})

	s.Run("other edits get one generic entry with sorted fields", func() {
		phone := "09350000000"
		first := "Zahra"
		updated, err := s.service.Update(s.ctx, admin, c.ID, models.UpdatePatch{Phone: &phone, FirstName: &first})
		s.Require().NoError(err)

		last := updated.AuditTrail[len(updated.AuditTrail)-1]
		s.Equal(models.EntryUpdated, last.Kind)
		s.Equal([]string{"first_name", "phone"}, last.ChangedFields)
	})

	s.Run("no change appends nothing", func() {
		before, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		phone := "09350000000"
		updated, err := s.service.Update(s.ctx, admin, c.ID, models.UpdatePatch{Phone: &phone})
		s.Require().NoError(err)
		s.Equal(before.Version, updated.Version)
		s.Len(updated.AuditTrail, len(before.AuditTrail))
	})

	s.Run("status edits follow the graph", func() {
		to := "permanent_transfer_approved"
		_, err := s.service.Update(s.ctx, testutil.DistrictAdmin("1001"), c.ID, models.UpdatePatch{RequestStatus: &to})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		to = "user_approval"
		updated, err := s.service.Update(s.ctx, admin, c.ID, models.UpdatePatch{RequestStatus: &to})
		s.Require().NoError(err)
		wf := updated.Workflow()
		s.Equal(models.StatusNoAction, wf[len(wf)-1].PreviousStatus)
	})

	s.Run("stale version conflicts", func() {
		stale := int64(1)
		phone := "0000"
		_, err := s.service.Update(s.ctx, admin, c.ID, models.UpdatePatch{Phone: &phone, ExpectedVersion: &stale})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("applicant may not edit", func() {
		phone := "0000"
		_, err := s.service.Update(s.ctx, testutil.Applicant("0012345678"), c.ID, models.UpdatePatch{Phone: &phone})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("district admin cannot move a case out of scope", func() {
		code := "2001"
		_, err := s.service.Update(s.ctx, testutil.DistrictAdmin("1001"), c.ID, models.UpdatePatch{CurrentWorkPlaceCode: &code})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown location is rejected", func() {
		code := "9999"
		_, err := s.service.Update(s.ctx, admin, c.ID, models.UpdatePatch{SourceDistrictCode: &code})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *CaseServiceSuite) TestUpdate_SyncsIdentity() {
	s.identities.EXPECT().EnsureProvisioned(gomock.Any(), gomock.Any()).Return(true, nil)
	c, err := s.service.Create(s.ctx, testutil.SuperAdmin(), createRequest("12345678", "0012345678"))
	s.Require().NoError(err)

	s.identities.EXPECT().
		SyncProfile(gomock.Any(), gomock.AssignableToTypeOf(identitymodels.Profile{})).
		DoAndReturn(func(_ context.Context, p identitymodels.Profile) error {
			s.Equal("Ahmadi", p.LastName)
			return nil
		})

	last := "Ahmadi"
	_, err = s.service.Update(s.ctx, testutil.SuperAdmin(), c.ID, models.UpdatePatch{LastName: &last})
	s.Require().NoError(err)
}

// =============================================================================
// Delete
// =============================================================================

func (s *CaseServiceSuite) TestDelete() {
	c := s.seed("12345678")

	s.Run("requires super admin", func() {
		err := s.service.Delete(s.ctx, testutil.ProvinceAdmin("10"), c.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("archives the trail then removes the case", func() {
		s.Require().NoError(s.service.Delete(s.ctx, testutil.SuperAdmin(), c.ID))

		_, err := s.store.FindByID(s.ctx, c.ID)
		s.Error(err)

		events, err := s.auditStore.ListByCase(s.ctx, c.ID)
		s.Require().NoError(err)
		last := events[len(events)-1]
		s.Equal(string(audit.EventCaseDeleted), last.Action)
		s.Equal(audit.CategoryCompliance, last.Category)
		s.Contains(string(last.Payload), `"audit_trail"`)
	})

	s.Run("missing case", func() {
		err := s.service.Delete(s.ctx, testutil.SuperAdmin(), c.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CaseServiceSuite) TestDelete_ArchiveFailureAborts() {
	c := s.seed("12345678")

	publisherMock := mocks.NewMockAuditPublisher(s.ctrl)
	svc := s.newService(WithAuditPublisher(publisherMock))
	publisherMock.EXPECT().
		Emit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e audit.Event) error {
			s.Equal(string(audit.EventCaseDeleted), e.Action)
			return errors.New("audit store down")
		})

	err := svc.Delete(s.ctx, testutil.SuperAdmin(), c.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = s.store.FindByID(s.ctx, c.ID)
	s.NoError(err)
}

// =============================================================================
// Reads and scope
// =============================================================================

func (s *CaseServiceSuite) TestList_OversizedPageIsRejected() {
	s.seed("12345678")

	s.NotPanics(func() {
		_, err := s.service.List(s.ctx, testutil.SuperAdmin(), models.ListQuery{Page: math.MaxInt64/50 + 1, Limit: 100})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	page, err := s.service.List(s.ctx, testutil.SuperAdmin(), models.ListQuery{Page: models.MaxPage, Limit: models.MaxPageLimit})
	s.Require().NoError(err)
	s.Equal(1, page.Total)
	s.Empty(page.Items)
}

func (s *CaseServiceSuite) TestReadsRespectScope() {
	c := s.seed("12345678")
	req := createRequest("87654321", "")
	req.CurrentWorkPlaceCode = "2001"
	req.SourceDistrictCode = "2001"
	_, err := s.service.Create(s.ctx, testutil.SuperAdmin(), req)
	s.Require().NoError(err)

	s.Run("get inside scope", func() {
		got, err := s.service.Get(s.ctx, testutil.ProvinceAdmin("10"), c.ID)
		s.Require().NoError(err)
		s.Equal(c.ID, got.ID)
	})

	s.Run("get outside scope", func() {
		_, err := s.service.Get(s.ctx, testutil.ProvinceAdmin("20"), c.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unresolvable actor is forbidden on targeted reads", func() {
		_, err := s.service.History(s.ctx, testutil.DistrictAdmin("7777"), c.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("list is filtered", func() {
		page, err := s.service.List(s.ctx, testutil.DistrictAdmin("2001"), models.ListQuery{})
		s.Require().NoError(err)
		s.Equal(1, page.Total)
		s.Equal("87654321", page.Items[0].PersonnelCode)
	})

	s.Run("unresolvable actor lists nothing", func() {
		page, err := s.service.List(s.ctx, domain.Actor{Role: domain.RoleProvinceAdmin}, models.ListQuery{})
		s.Require().NoError(err)
		s.Zero(page.Total)
		s.NotNil(page.Items)
	})

	s.Run("lookup requires a criterion", func() {
		_, err := s.service.Lookup(s.ctx, testutil.SuperAdmin(), models.LookupQuery{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("lookup is filtered", func() {
		items, err := s.service.Lookup(s.ctx, testutil.DistrictAdmin("2001"), models.LookupQuery{PersonnelCode: "12345678"})
		s.Require().NoError(err)
		s.Empty(items)
	})

	s.Run("denials are audited", func() {
		events, err := s.auditStore.ListRecent(s.ctx, 100)
		s.Require().NoError(err)
		found := false
		for _, e := range events {
			if e.Action == string(audit.EventScopeDenied) {
				found = true
				s.Equal(audit.CategorySecurity, e.Category)
				s.JSONEq(`{"client_ip":"","device":"unknown"}`, string(e.Payload))
			}
		}
		s.True(found)
	})
}
