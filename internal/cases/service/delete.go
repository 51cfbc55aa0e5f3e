package service

import (
	"context"

	"transferdesk/pkg/domain"
	dErrors "transferdesk/pkg/domain-errors"
	audit "transferdesk/pkg/platform/audit"
	"transferdesk/pkg/requestcontext"
)

// Delete hard-deletes a case. The full record, trail included, is first
// archived as a compliance audit event; if that fails nothing is deleted.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id domain.CaseID) (err error) {
	ctx, span := s.startSpan(ctx, "Delete", id)
	defer func() { endSpan(span, err) }()

	if !actor.Role.IsElevated() {
		return dErrors.New(dErrors.CodeForbidden, "only a super admin may delete cases")
	}
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return translateStoreError(err)
	}

	payload, err := snapshot(c)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to snapshot case")
	}
	if err := s.emit(ctx, audit.Event{
		CaseID:  c.ID,
		Subject: c.PersonnelCode,
		Action:  string(audit.EventCaseDeleted),
		ActorID: actor.Label(),
		Payload: payload,
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to archive case before deletion")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return translateStoreError(err)
	}
	if s.metrics != nil {
		s.metrics.IncrementCasesDeleted()
	}
	s.logger.InfoContext(ctx, "case deleted",
		"case_id", id.String(),
		"actor", actor.Label(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
