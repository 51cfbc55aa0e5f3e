package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"transferdesk/internal/cases/models"
	"transferdesk/internal/cases/workflow"
	"transferdesk/pkg/domain"
	dErrors "transferdesk/pkg/domain-errors"
	audit "transferdesk/pkg/platform/audit"
	pstrings "transferdesk/pkg/platform/strings"
	"transferdesk/pkg/requestcontext"
)

var errNoChange = errors.New("no change")

var locationFields = []string{
	"current_work_place_code",
	"source_district_code",
	"destination_priorities",
	"final_destination_code",
}

var profileFields = []string{"first_name", "last_name", "phone"}

// Update applies a partial edit as one versioned write. Recognized field
// changes each get a dedicated trail entry; other edits are summarized in one
// generic entry. A patch that changes nothing returns the case untouched.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id domain.CaseID, patch models.UpdatePatch) (_ *models.Case, err error) {
	ctx, span := s.startSpan(ctx, "Update", id)
	defer func() { endSpan(span, err) }()

	if actor.Role == domain.RoleApplicant || !actor.Role.IsValid() {
		return nil, dErrors.New(dErrors.CodeForbidden, "role may not edit cases")
	}
	filter := s.resolver.Resolve(ctx, actor)
	now := requestcontext.Now(ctx)

	var (
		next    *models.Case
		changed []string
	)
	validate := func(current *models.Case) error {
		if err := s.authorize(ctx, actor, filter, current); err != nil {
			return err
		}
		if err := checkVersion(patch.ExpectedVersion, current); err != nil {
			return err
		}
		candidate := current.Clone()
		fieldsChanged, err := patch.Apply(candidate)
		if err != nil {
			return err
		}
		if len(fieldsChanged) == 0 {
			return errNoChange
		}
		if slices.Contains(fieldsChanged, "request_status") {
			if err := workflow.Check(actor.Role, current.RequestStatus, candidate.RequestStatus); err != nil {
				if s.metrics != nil {
					s.metrics.IncrementTransitionRejected(string(actor.Role))
				}
				return err
			}
		}
		if slices.Contains(fieldsChanged, "field_code") || slices.Contains(fieldsChanged, "field_title") {
			if err := s.applyCatalog(candidate); err != nil {
				return err
			}
		}
		if pstrings.ContainsAny(fieldsChanged, locationFields) {
			if err := s.validateReferences(ctx, candidate); err != nil {
				return err
			}
			if !filter.Matches(candidate.ScopeSubject()) {
				return dErrors.New(dErrors.CodeForbidden, "edit would move the case outside your access scope")
			}
		}

		candidate.UpdatedAt = now
		appendEditEntries(candidate, current, fieldsChanged, actor.Label(), now)
		next, changed = candidate, fieldsChanged
		return nil
	}
	mutate := func(c *models.Case) {
		*c = *next
	}

	updated, err := s.store.Execute(ctx, id, validate, mutate)
	if errors.Is(err, errNoChange) {
		current, err := s.store.FindByID(ctx, id)
		return current, translateStoreError(err)
	}
	if err != nil {
		return nil, translateStoreError(err)
	}

	if s.metrics != nil {
		s.metrics.IncrementCaseUpdates()
		if slices.Contains(changed, "request_status") {
			s.metrics.IncrementStatusTransition(string(updated.RequestStatus))
		}
	}
	s.logger.InfoContext(ctx, "case updated",
		"case_id", id.String(),
		"fields", changed,
		"version", updated.Version,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emitBestEffort(ctx, audit.Event{
		CaseID:  id,
		Subject: updated.PersonnelCode,
		Action:  string(audit.EventCaseUpdated),
		ActorID: actor.Label(),
		Reason:  fmt.Sprintf("fields: %v", changed),
	})

	s.syncIdentity(ctx, updated, changed)
	return updated, nil
}

func appendEditEntries(next, prev *models.Case, changed []string, actor string, at time.Time) {
	recognized := false
	if slices.Contains(changed, "request_status") {
		recognized = true
		next.AppendEntry(models.AuditEntry{
			Kind:       models.EntryStatusChange,
			FromStatus: prev.RequestStatus,
			ToStatus:   next.RequestStatus,
			Actor:      actor,
			Timestamp:  at,
			Comment:    fmt.Sprintf("request status changed from %q to %q", prev.RequestStatus.Label(), next.RequestStatus.Label()),
		})
	}
	if slices.Contains(changed, "legacy_status") {
		recognized = true
		next.AppendEntry(models.AuditEntry{
			Kind:      models.EntryLegacyStatusChange,
			ToStatus:  next.RequestStatus,
			Actor:     actor,
			Timestamp: at,
			Comment:   fmt.Sprintf("transfer status changed from %q to %q", prev.LegacyStatus.Label(), next.LegacyStatus.Label()),
			Metadata: map[string]any{
				"from_legacy_status": int(prev.LegacyStatus),
				"to_legacy_status":   int(next.LegacyStatus),
			},
		})
	}
	if slices.Contains(changed, "is_active") {
		recognized = true
		next.AppendEntry(models.AuditEntry{
			Kind:      models.EntryActivationChange,
			ToStatus:  next.RequestStatus,
			Actor:     actor,
			Timestamp: at,
			Comment:   fmt.Sprintf("case changed from %s to %s", activation(prev.IsActive), activation(next.IsActive)),
		})
	}
	if recognized {
		return
	}
	next.AppendEntry(models.AuditEntry{
		Kind:          models.EntryUpdated,
		FromStatus:    prev.RequestStatus,
		ToStatus:      next.RequestStatus,
		Actor:         actor,
		Timestamp:     at,
		Comment:       fmt.Sprintf("case edited: %v", changed),
		ChangedFields: slices.Clone(changed),
	})
}

func activation(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

// syncIdentity keeps the linked identity in step with the case. A newly set
// national id provisions one.
func (s *Service) syncIdentity(ctx context.Context, c *models.Case, changed []string) {
	if s.identities == nil || c.NationalID == "" {
		return
	}
	if slices.Contains(changed, "national_id") {
		s.provision(ctx, c)
		return
	}
	if !pstrings.ContainsAny(changed, profileFields) {
		return
	}
	if err := s.identities.SyncProfile(ctx, profileOf(c)); err != nil {
		if s.metrics != nil {
			s.metrics.IncrementIdentityProvisionFailure()
		}
		s.logger.WarnContext(ctx, "identity profile sync failed",
			"case_id", c.ID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
