package store_test

import (
	"time"

	"transferdesk/internal/cases/models"
	"transferdesk/pkg/domain"
)

var baseTime = time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

type caseOpt func(*models.Case)

func withScore(v float64) caseOpt {
	return func(c *models.Case) { c.ApprovedScore = &v }
}

func withStatus(s models.RequestStatus) caseOpt {
	return func(c *models.Case) { c.RequestStatus = s }
}

func withGender(g models.Gender) caseOpt {
	return func(c *models.Case) { c.Gender = g }
}

func withLocation(workPlace, source string) caseOpt {
	return func(c *models.Case) {
		c.CurrentWorkPlaceCode = workPlace
		c.SourceDistrictCode = source
	}
}

func withNationalID(n string) caseOpt {
	return func(c *models.Case) { c.NationalID = n }
}

func withCreatedAt(t time.Time) caseOpt {
	return func(c *models.Case) { c.CreatedAt = t }
}

func newCase(personnelCode string, opts ...caseOpt) *models.Case {
	c := &models.Case{
		ID:                   domain.NewCaseID(),
		PersonnelCode:        personnelCode,
		FirstName:            "Ali",
		LastName:             "Rezaei",
		EmploymentType:       "official",
		Gender:               models.GenderMale,
		YearsOfService:       10,
		FieldCode:            "F1",
		FieldTitle:           "Primary teacher",
		CurrentWorkPlaceCode: "1001",
		SourceDistrictCode:   "1001",
		DestinationPriorities: []models.DestinationPriority{
			{Code: "1002", TransferType: models.TransferPermanent},
		},
		LegacyStatus:       models.LegacyAwaitingReview,
		RequestStatus:      models.StatusUserApproval,
		IsActive:           true,
		CanEditDestination: true,
		Version:            1,
		CreatedBy:          "super_admin:test",
		CreatedAt:          baseTime,
		UpdatedAt:          baseTime,
	}
	c.AppendEntry(models.AuditEntry{
		Kind:      models.EntryCreated,
		ToStatus:  c.RequestStatus,
		Actor:     c.CreatedBy,
		Timestamp: baseTime,
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}
