package service

import (
	"context"
	"fmt"
	"maps"

	"transferdesk/internal/cases/models"
	"transferdesk/internal/cases/workflow"
	"transferdesk/pkg/domain"
	dErrors "transferdesk/pkg/domain-errors"
	audit "transferdesk/pkg/platform/audit"
	"transferdesk/pkg/requestcontext"
)

// ChangeRequestStatus moves a case along the workflow graph. The previous
// status, the trail entry and the new status are written in one versioned
// update, so both log views gain exactly one matching entry.
func (s *Service) ChangeRequestStatus(ctx context.Context, actor domain.Actor, id domain.CaseID, req models.StatusChangeRequest) (_ *models.Case, err error) {
	ctx, span := s.startSpan(ctx, "ChangeRequestStatus", id)
	defer func() { endSpan(span, err) }()

	to, err := models.ParseRequestStatus(req.To)
	if err != nil {
		return nil, err
	}
	filter := s.resolver.Resolve(ctx, actor)
	now := requestcontext.Now(ctx)

	var from models.RequestStatus
	validate := func(current *models.Case) error {
		if err := s.authorize(ctx, actor, filter, current); err != nil {
			return err
		}
		if err := checkVersion(req.ExpectedVersion, current); err != nil {
			return err
		}
		if err := workflow.Check(actor.Role, current.RequestStatus, to); err != nil {
			if s.metrics != nil {
				s.metrics.IncrementTransitionRejected(string(actor.Role))
			}
			return err
		}
		return nil
	}
	mutate := func(c *models.Case) {
		from = c.RequestStatus
		c.AppendEntry(models.AuditEntry{
			Kind:       models.EntryStatusChange,
			FromStatus: from,
			ToStatus:   to,
			Actor:      actor.Label(),
			Timestamp:  now,
			Comment:    fmt.Sprintf("request status changed from %q to %q", from.Label(), to.Label()),
			Reason:     req.Reason,
			Metadata:   maps.Clone(req.Metadata),
		})
		c.RequestStatus = to
		c.UpdatedAt = now
	}

	updated, err := s.store.Execute(ctx, id, validate, mutate)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidTransition) {
			s.logger.InfoContext(ctx, "status transition rejected",
				"case_id", id.String(),
				"role", string(actor.Role),
				"to", string(to),
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return nil, translateStoreError(err)
	}

	if s.metrics != nil {
		s.metrics.IncrementStatusTransition(string(to))
	}
	s.logger.InfoContext(ctx, "case status changed",
		"case_id", id.String(),
		"from", string(from),
		"to", string(to),
		"actor", actor.Label(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emitBestEffort(ctx, audit.Event{
		CaseID:  id,
		Subject: updated.PersonnelCode,
		Action:  string(audit.EventCaseStatusChanged),
		ActorID: actor.Label(),
		Reason:  string(from) + " -> " + string(to),
	})
	return updated, nil
}
