// Package workflow holds the per-role request-status transition graph.
package workflow

import (
	"slices"

	"transferdesk/internal/cases/models"
	"transferdesk/pkg/domain"
	dErrors "transferdesk/pkg/domain-errors"
)

type edges map[models.RequestStatus][]models.RequestStatus

var (
	applicantEdges = edges{
		models.StatusNoAction:     {models.StatusUserApproval, models.StatusUserCancelled},
		models.StatusUserApproval: {models.StatusUserCancelled},
	}

	districtEdges = edges{
		models.StatusUserApproval: {models.StatusSourceReview},
		models.StatusSourceReview: {
			models.StatusUserApproval,
			models.StatusSourceApproved,
			models.StatusSourceRejected,
			models.StatusExceptionEligibilityApproval,
			models.StatusExceptionEligibilityRejection,
			models.StatusInvalidRequest,
		},
		models.StatusExceptionEligibilityApproval:  {models.StatusSourceReview},
		models.StatusExceptionEligibilityRejection: {models.StatusSourceReview},
		models.StatusSourceRejected:                {models.StatusSourceReview},
		models.StatusProvinceApproved:              {models.StatusDestinationReview},
		models.StatusDestinationReview:             {models.StatusDestinationApproved, models.StatusDestinationRejected},
	}

	provinceEdges = withInvalidation(edges{
		models.StatusSourceApproved:               {models.StatusProvinceReview},
		models.StatusExceptionEligibilityApproval: {models.StatusProvinceReview},
		models.StatusProvinceReview: {
			models.StatusProvinceApproved,
			models.StatusProvinceRejected,
			models.StatusSourceReview,
		},
		models.StatusProvinceRejected:    {models.StatusProvinceReview},
		models.StatusProvinceApproved:    {models.StatusDestinationReview},
		models.StatusDestinationReview:   {models.StatusDestinationApproved, models.StatusDestinationRejected},
		models.StatusDestinationApproved: {models.StatusTemporaryTransferApproved, models.StatusPermanentTransferApproved},
	})

	superAdminEdges = withReopen(union(applicantEdges, districtEdges, provinceEdges))

	graph = map[domain.Role]edges{
		domain.RoleApplicant:     applicantEdges,
		domain.RoleDistrictAdmin: districtEdges,
		domain.RoleProvinceAdmin: provinceEdges,
		domain.RoleSuperAdmin:    superAdminEdges,
	}
)

// withInvalidation lets every non-terminal status move to invalid_request.
func withInvalidation(e edges) edges {
	for _, s := range models.AllRequestStatuses() {
		if s.IsTerminal() {
			continue
		}
		if !slices.Contains(e[s], models.StatusInvalidRequest) {
			e[s] = append(e[s], models.StatusInvalidRequest)
		}
	}
	return e
}

// withReopen sends every terminal status back to source review.
func withReopen(e edges) edges {
	for _, s := range models.AllRequestStatuses() {
		if s.IsTerminal() {
			e[s] = append(e[s], models.StatusSourceReview)
		}
	}
	return e
}

func union(sets ...edges) edges {
	out := edges{}
	for _, set := range sets {
		for from, tos := range set {
			for _, to := range tos {
				if !slices.Contains(out[from], to) {
					out[from] = append(out[from], to)
				}
			}
		}
	}
	return out
}

// Check reports whether role may move a case from one status to another.
// Self transitions are never allowed.
func Check(role domain.Role, from, to models.RequestStatus) error {
	if !to.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown request status %q", to)
	}
	if from == to {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "case is already in status %s", to)
	}
	e, ok := graph[role]
	if !ok || !slices.Contains(e[from], to) {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "role %s cannot move a case from %s to %s", role, from, to)
	}
	return nil
}

// AllowedTargets lists the statuses role may move a case to from the given one.
func AllowedTargets(role domain.Role, from models.RequestStatus) []models.RequestStatus {
	e, ok := graph[role]
	if !ok {
		return nil
	}
	return slices.Clone(e[from])
}
