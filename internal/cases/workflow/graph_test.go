package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transferdesk/internal/cases/models"
	"transferdesk/pkg/domain"
	dErrors "transferdesk/pkg/domain-errors"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		role    domain.Role
		from    models.RequestStatus
		to      models.RequestStatus
		wantErr dErrors.Code
	}{
		{"applicant submits", domain.RoleApplicant, models.StatusNoAction, models.StatusUserApproval, ""},
		{"applicant cancels after submit", domain.RoleApplicant, models.StatusUserApproval, models.StatusUserCancelled, ""},
		{"applicant cannot review", domain.RoleApplicant, models.StatusUserApproval, models.StatusSourceReview, dErrors.CodeInvalidTransition},
		{"district opens review", domain.RoleDistrictAdmin, models.StatusUserApproval, models.StatusSourceReview, ""},
		{"district approves", domain.RoleDistrictAdmin, models.StatusSourceReview, models.StatusSourceApproved, ""},
		{"district cannot approve transfer", domain.RoleDistrictAdmin, models.StatusDestinationApproved, models.StatusPermanentTransferApproved, dErrors.CodeInvalidTransition},
		{"province finalizes", domain.RoleProvinceAdmin, models.StatusDestinationApproved, models.StatusTemporaryTransferApproved, ""},
		{"province invalidates any open case", domain.RoleProvinceAdmin, models.StatusNoAction, models.StatusInvalidRequest, ""},
		{"province cannot reopen terminal", domain.RoleProvinceAdmin, models.StatusPermanentTransferApproved, models.StatusSourceReview, dErrors.CodeInvalidTransition},
		{"super admin reopens terminal", domain.RoleSuperAdmin, models.StatusInvalidRequest, models.StatusSourceReview, ""},
		{"super admin has applicant edges", domain.RoleSuperAdmin, models.StatusNoAction, models.StatusUserApproval, ""},
		{"self transition", domain.RoleSuperAdmin, models.StatusSourceReview, models.StatusSourceReview, dErrors.CodeInvalidTransition},
		{"unknown role", domain.Role("guest"), models.StatusNoAction, models.StatusUserApproval, dErrors.CodeInvalidTransition},
		{"unknown target", domain.RoleSuperAdmin, models.StatusNoAction, models.RequestStatus("done"), dErrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.role, tt.from, tt.to)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestGraphShape(t *testing.T) {
	t.Run("terminal statuses have no outgoing edges below super admin", func(t *testing.T) {
		for _, role := range []domain.Role{domain.RoleApplicant, domain.RoleDistrictAdmin, domain.RoleProvinceAdmin} {
			for _, s := range models.AllRequestStatuses() {
				if s.IsTerminal() {
					assert.Empty(t, AllowedTargets(role, s), "%s from %s", role, s)
				}
			}
		}
	})

	t.Run("no edge points at its own source", func(t *testing.T) {
		for role, e := range graph {
			for from, tos := range e {
				assert.NotContains(t, tos, from, "role %s", role)
			}
		}
	})

	t.Run("super admin is a superset", func(t *testing.T) {
		for _, role := range []domain.Role{domain.RoleApplicant, domain.RoleDistrictAdmin, domain.RoleProvinceAdmin} {
			for from, tos := range graph[role] {
				for _, to := range tos {
					assert.NoError(t, Check(domain.RoleSuperAdmin, from, to))
				}
			}
		}
	})

	t.Run("allowed targets are copies", func(t *testing.T) {
		got := AllowedTargets(domain.RoleApplicant, models.StatusNoAction)
		got[0] = models.StatusInvalidRequest
		assert.Equal(t, models.StatusUserApproval, AllowedTargets(domain.RoleApplicant, models.StatusNoAction)[0])
	})
}
