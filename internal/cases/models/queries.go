package models

import (
	"math"
	"strings"

	dErrors "transferdesk/pkg/domain-errors"
	pstrings "transferdesk/pkg/platform/strings"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	// MaxPage keeps (page-1)*limit within an int.
	MaxPage = math.MaxInt / MaxPageLimit
)

// ListQuery filters the case list. Zero values mean "any".
type ListQuery struct {
	Q              string
	RequestStatus  RequestStatus
	LegacyStatus   LegacyStatus
	EmploymentType string
	Gender         Gender
	// LocationCode matches either the current work place or the source district.
	LocationCode string
	Page         int
	Limit        int
}

// Normalize clamps paging and validates enum filters.
func (q *ListQuery) Normalize() error {
	q.Q = strings.TrimSpace(q.Q)
	if q.RequestStatus != "" && !q.RequestStatus.IsValid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown request status %q", q.RequestStatus)
	}
	if q.LegacyStatus != 0 && !q.LegacyStatus.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "legacy status must be between 1 and 4")
	}
	if q.Gender != "" && q.Gender != GenderMale && q.Gender != GenderFemale {
		return dErrors.New(dErrors.CodeValidation, "gender must be male or female")
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		return dErrors.Newf(dErrors.CodeValidation, "page must be at most %d", MaxPage)
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	return nil
}

// Offset is the number of rows before the page. It is never negative.
func (q ListQuery) Offset() int {
	if q.Page < 1 || q.Limit < 1 || q.Page > MaxPage {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// Matches evaluates the non-scope part of the query in memory.
func (q ListQuery) Matches(c *Case) bool {
	if q.RequestStatus != "" && c.RequestStatus != q.RequestStatus {
		return false
	}
	if q.LegacyStatus != 0 && c.LegacyStatus != q.LegacyStatus {
		return false
	}
	if q.EmploymentType != "" && c.EmploymentType != q.EmploymentType {
		return false
	}
	if q.Gender != "" && c.Gender != q.Gender {
		return false
	}
	if q.LocationCode != "" && c.CurrentWorkPlaceCode != q.LocationCode && c.SourceDistrictCode != q.LocationCode {
		return false
	}
	if q.Q != "" {
		needle := strings.ToLower(q.Q)
		hay := []string{c.FirstName, c.LastName, c.FirstName + " " + c.LastName, c.PersonnelCode, c.NationalID}
		found := false
		for _, h := range hay {
			if strings.Contains(strings.ToLower(h), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type Page struct {
	Items []*Case `json:"items"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
}

// LookupQuery finds cases by identifiers and final-decision attributes. All
// present criteria must hold.
type LookupQuery struct {
	PersonnelCode        string
	NationalID           string
	FinalDestinationCode string
	// FinalReason is a case-insensitive substring.
	FinalReason string
	// Clauses matches cases whose approved clauses share at least one code.
	Clauses []string
}

func (q *LookupQuery) Normalize() error {
	q.PersonnelCode = strings.TrimSpace(q.PersonnelCode)
	q.NationalID = strings.TrimSpace(q.NationalID)
	q.FinalDestinationCode = strings.TrimSpace(q.FinalDestinationCode)
	q.FinalReason = strings.TrimSpace(q.FinalReason)
	q.Clauses = pstrings.DedupeAndTrim(q.Clauses)
	if q.PersonnelCode == "" && q.NationalID == "" && q.FinalDestinationCode == "" && q.FinalReason == "" && len(q.Clauses) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one lookup criterion is required")
	}
	return nil
}

func (q LookupQuery) Matches(c *Case) bool {
	if q.PersonnelCode != "" && c.PersonnelCode != q.PersonnelCode {
		return false
	}
	if q.NationalID != "" && c.NationalID != q.NationalID {
		return false
	}
	if q.FinalDestinationCode != "" && c.FinalDestinationCode != q.FinalDestinationCode {
		return false
	}
	if q.FinalReason != "" && !strings.Contains(strings.ToLower(c.FinalReason), strings.ToLower(q.FinalReason)) {
		return false
	}
	if len(q.Clauses) > 0 && !pstrings.ContainsAny(pstrings.SplitCodes(c.ApprovedClauses), q.Clauses) {
		return false
	}
	return true
}

// PoolQuery selects the ranking comparison pool.
type PoolQuery struct {
	FieldCode          string
	SourceDistrictCode string
	// Gender restricts the pool when non-empty.
	Gender   Gender
	Statuses []RequestStatus
	// Score is the target's score; cases strictly above it count as better.
	Score float64
}

// StatusCount is one row of the grouped ranking aggregation.
type StatusCount struct {
	Status RequestStatus
	Total  int
	Better int
}
