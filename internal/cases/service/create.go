package service

import (
	"context"
	"errors"

	"transferdesk/internal/cases/models"
	"transferdesk/pkg/domain"
	dErrors "transferdesk/pkg/domain-errors"
	audit "transferdesk/pkg/platform/audit"
	"transferdesk/pkg/platform/sentinel"
	"transferdesk/pkg/requestcontext"
)

// Create validates and stores a new case, then provisions the applicant
// identity. Provisioning failures are logged and never undo the case.
func (s *Service) Create(ctx context.Context, actor domain.Actor, req models.CreateRequest) (_ *models.Case, err error) {
	ctx, span := s.startSpan(ctx, "Create", domain.CaseID{})
	defer func() { endSpan(span, err) }()

	if actor.Role == domain.RoleApplicant || !actor.Role.IsValid() {
		return nil, dErrors.New(dErrors.CodeForbidden, "role may not create cases")
	}

	c, err := req.ToCase()
	if err != nil {
		return nil, err
	}
	if err := s.applyCatalog(c); err != nil {
		return nil, err
	}
	if err := s.validateReferences(ctx, c); err != nil {
		return nil, err
	}

	c.ID = domain.NewCaseID()
	if err := s.authorize(ctx, actor, s.resolver.Resolve(ctx, actor), c); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, c); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	c.Version = 1
	c.CreatedBy = actor.Label()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.AppendEntry(models.AuditEntry{
		Kind:      models.EntryCreated,
		ToStatus:  c.RequestStatus,
		Actor:     actor.Label(),
		Timestamp: now,
		Comment:   "case created with status " + c.RequestStatus.Label(),
	})

	if err := s.store.Create(ctx, c); err != nil {
		return nil, translateStoreError(err)
	}
	if s.metrics != nil {
		s.metrics.IncrementCasesCreated()
	}
	s.logger.InfoContext(ctx, "case created",
		"case_id", c.ID.String(),
		"actor", actor.Label(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emitBestEffort(ctx, audit.Event{
		CaseID:  c.ID,
		Subject: c.PersonnelCode,
		Action:  string(audit.EventCaseCreated),
		ActorID: actor.Label(),
	})

	s.provision(ctx, c)
	return c, nil
}

// checkUnique reports key conflicts before the insert. The store enforces the
// same keys, so a racing insert still fails with a conflict.
func (s *Service) checkUnique(ctx context.Context, c *models.Case) error {
	if _, err := s.store.FindByPersonnelCode(ctx, c.PersonnelCode); err == nil {
		return dErrors.New(dErrors.CodeConflict, "a case with this personnel code already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return translateStoreError(err)
	}
	if c.NationalID == "" {
		return nil
	}
	if _, err := s.store.FindByNationalID(ctx, c.NationalID); err == nil {
		return dErrors.New(dErrors.CodeConflict, "a case with this national id already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return translateStoreError(err)
	}
	return nil
}

func (s *Service) provision(ctx context.Context, c *models.Case) {
	if s.identities == nil || c.NationalID == "" {
		return
	}
	created, err := s.identities.EnsureProvisioned(ctx, profileOf(c))
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementIdentityProvisionFailure()
		}
		s.logger.ErrorContext(ctx, "identity provisioning failed",
			"case_id", c.ID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		s.emitBestEffort(ctx, audit.Event{
			CaseID:  c.ID,
			Subject: c.PersonnelCode,
			Action:  string(audit.EventIdentityProvisionFailed),
			Reason:  err.Error(),
		})
		return
	}
	if created {
		s.emitBestEffort(ctx, audit.Event{
			CaseID:  c.ID,
			Subject: c.PersonnelCode,
			Action:  string(audit.EventIdentityProvisioned),
		})
	}
}
