package models

import (
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"transferdesk/pkg/domain"
	dErrors "transferdesk/pkg/domain-errors"
	pstrings "transferdesk/pkg/platform/strings"
)

// DestinationInput is the wire shape of a destination priority.
type DestinationInput struct {
	Code         string `json:"code"`
	TransferType string `json:"transfer_type"`
}

// CreateRequest carries a new case from the HTTP surface or a batch import row.
type CreateRequest struct {
	PersonnelCode         string             `json:"personnel_code"`
	NationalID            string             `json:"national_id"`
	FirstName             string             `json:"first_name"`
	LastName              string             `json:"last_name"`
	Phone                 string             `json:"phone"`
	EmploymentType        string             `json:"employment_type"`
	Gender                string             `json:"gender"`
	YearsOfService        int                `json:"years_of_service"`
	FieldCode             string             `json:"field_code"`
	FieldTitle            string             `json:"field_title"`
	ApprovedScore         *float64           `json:"approved_score"`
	CurrentWorkPlaceCode  string             `json:"current_work_place_code"`
	SourceDistrictCode    string             `json:"source_district_code"`
	DestinationPriorities []DestinationInput `json:"destination_priorities"`
	FinalDestinationCode  string             `json:"final_destination_code"`
	FinalTransferType     string             `json:"final_transfer_type"`
	LegacyStatus          *int               `json:"legacy_status"`
	FinalResult           string             `json:"final_result"`
	FinalReason           string             `json:"final_reason"`
	ApprovedClauses       string             `json:"approved_clauses"`
	// RequestStatus is the initial workflow status; empty means no_action.
	RequestStatus string `json:"request_status"`
}

// ToCase validates the request and returns an unsaved case with defaults
// applied. Identity, timestamps and the trail are set by the service.
func (r *CreateRequest) ToCase() (*Case, error) {
	c := &Case{
		RequestStatus:      StatusNoAction,
		LegacyStatus:       LegacyAwaitingReview,
		IsActive:           true,
		CanEditDestination: true,
		AuditTrail:         []AuditEntry{},
	}
	var err error
	if strings.TrimSpace(r.RequestStatus) != "" {
		if c.RequestStatus, err = ParseRequestStatus(r.RequestStatus); err != nil {
			return nil, err
		}
	}
	if c.PersonnelCode, err = domain.ParsePersonnelCode(r.PersonnelCode); err != nil {
		return nil, err
	}
	if c.NationalID, err = domain.ParseNationalID(r.NationalID); err != nil {
		return nil, err
	}
	if c.FirstName, err = requiredText("first_name", r.FirstName); err != nil {
		return nil, err
	}
	if c.LastName, err = requiredText("last_name", r.LastName); err != nil {
		return nil, err
	}
	c.Phone = strings.TrimSpace(r.Phone)
	if c.EmploymentType, err = requiredText("employment_type", r.EmploymentType); err != nil {
		return nil, err
	}
	if c.Gender, err = ParseGender(r.Gender); err != nil {
		return nil, err
	}
	if c.YearsOfService, err = parseYears(r.YearsOfService); err != nil {
		return nil, err
	}
	if c.FieldCode, err = requiredText("field_code", r.FieldCode); err != nil {
		return nil, err
	}
	c.FieldTitle = strings.TrimSpace(r.FieldTitle)
	if c.ApprovedScore, err = parseScore(r.ApprovedScore); err != nil {
		return nil, err
	}
	if c.CurrentWorkPlaceCode, err = domain.ParseDistrictCode("current_work_place_code", r.CurrentWorkPlaceCode); err != nil {
		return nil, err
	}
	if c.SourceDistrictCode, err = domain.ParseDistrictCode("source_district_code", r.SourceDistrictCode); err != nil {
		return nil, err
	}
	if c.DestinationPriorities, err = parseDestinations(r.DestinationPriorities); err != nil {
		return nil, err
	}
	if c.FinalDestinationCode, c.FinalTransferType, err = parseFinalDestination(r.FinalDestinationCode, r.FinalTransferType); err != nil {
		return nil, err
	}
	if r.LegacyStatus != nil {
		if c.LegacyStatus, err = ParseLegacyStatus(*r.LegacyStatus); err != nil {
			return nil, err
		}
	}
	if c.FinalResult, err = ParseFinalResult(r.FinalResult); err != nil {
		return nil, err
	}
	if c.FinalReason, err = parseFinalReason(r.FinalReason); err != nil {
		return nil, err
	}
	c.ApprovedClauses = normalizeClauses(r.ApprovedClauses)
	return c, nil
}

// UpdatePatch is a partial edit. Nil fields are left untouched.
type UpdatePatch struct {
	NationalID            *string             `json:"national_id"`
	FirstName             *string             `json:"first_name"`
	LastName              *string             `json:"last_name"`
	Phone                 *string             `json:"phone"`
	EmploymentType        *string             `json:"employment_type"`
	Gender                *string             `json:"gender"`
	YearsOfService        *int                `json:"years_of_service"`
	FieldCode             *string             `json:"field_code"`
	FieldTitle            *string             `json:"field_title"`
	ApprovedScore         *float64            `json:"approved_score"`
	ClearApprovedScore    bool                `json:"clear_approved_score"`
	CurrentWorkPlaceCode  *string             `json:"current_work_place_code"`
	SourceDistrictCode    *string             `json:"source_district_code"`
	DestinationPriorities *[]DestinationInput `json:"destination_priorities"`
	FinalDestinationCode  *string             `json:"final_destination_code"`
	FinalTransferType     *string             `json:"final_transfer_type"`
	LegacyStatus          *int                `json:"legacy_status"`
	RequestStatus         *string             `json:"request_status"`
	FinalResult           *string             `json:"final_result"`
	FinalReason           *string             `json:"final_reason"`
	ApprovedClauses       *string             `json:"approved_clauses"`
	IsActive              *bool               `json:"is_active"`
	CanEditDestination    *bool               `json:"can_edit_destination"`
	ExpectedVersion       *int64              `json:"expected_version"`
}

// Apply validates the patch and writes it onto c. It returns the sorted json
// names of fields whose value actually changed.
func (p *UpdatePatch) Apply(c *Case) ([]string, error) {
	var changed []string
	mark := func(name string, differs bool) {
		if differs {
			changed = append(changed, name)
		}
	}

	if p.NationalID != nil {
		v, err := domain.ParseNationalID(*p.NationalID)
		if err != nil {
			return nil, err
		}
		mark("national_id", v != c.NationalID)
		c.NationalID = v
	}
	if p.FirstName != nil {
		v, err := requiredText("first_name", *p.FirstName)
		if err != nil {
			return nil, err
		}
		mark("first_name", v != c.FirstName)
		c.FirstName = v
	}
	if p.LastName != nil {
		v, err := requiredText("last_name", *p.LastName)
		if err != nil {
			return nil, err
		}
		mark("last_name", v != c.LastName)
		c.LastName = v
	}
	if p.Phone != nil {
		v := strings.TrimSpace(*p.Phone)
		mark("phone", v != c.Phone)
		c.Phone = v
	}
	if p.EmploymentType != nil {
		v, err := requiredText("employment_type", *p.EmploymentType)
		if err != nil {
			return nil, err
		}
		mark("employment_type", v != c.EmploymentType)
		c.EmploymentType = v
	}
	if p.Gender != nil {
		v, err := ParseGender(*p.Gender)
		if err != nil {
			return nil, err
		}
		mark("gender", v != c.Gender)
		c.Gender = v
	}
	if p.YearsOfService != nil {
		v, err := parseYears(*p.YearsOfService)
		if err != nil {
			return nil, err
		}
		mark("years_of_service", v != c.YearsOfService)
		c.YearsOfService = v
	}
	if p.FieldCode != nil {
		v, err := requiredText("field_code", *p.FieldCode)
		if err != nil {
			return nil, err
		}
		mark("field_code", v != c.FieldCode)
		c.FieldCode = v
	}
	if p.FieldTitle != nil {
		v := strings.TrimSpace(*p.FieldTitle)
		mark("field_title", v != c.FieldTitle)
		c.FieldTitle = v
	}
	if p.ClearApprovedScore {
		mark("approved_score", c.ApprovedScore != nil)
		c.ApprovedScore = nil
	} else if p.ApprovedScore != nil {
		v, err := parseScore(p.ApprovedScore)
		if err != nil {
			return nil, err
		}
		mark("approved_score", c.ApprovedScore == nil || *c.ApprovedScore != *v)
		c.ApprovedScore = v
	}
	if p.CurrentWorkPlaceCode != nil {
		v, err := domain.ParseDistrictCode("current_work_place_code", *p.CurrentWorkPlaceCode)
		if err != nil {
			return nil, err
		}
		mark("current_work_place_code", v != c.CurrentWorkPlaceCode)
		c.CurrentWorkPlaceCode = v
	}
	if p.SourceDistrictCode != nil {
		v, err := domain.ParseDistrictCode("source_district_code", *p.SourceDistrictCode)
		if err != nil {
			return nil, err
		}
		mark("source_district_code", v != c.SourceDistrictCode)
		c.SourceDistrictCode = v
	}
	if p.DestinationPriorities != nil {
		v, err := parseDestinations(*p.DestinationPriorities)
		if err != nil {
			return nil, err
		}
		mark("destination_priorities", !slices.Equal(v, c.DestinationPriorities))
		c.DestinationPriorities = v
	}
	if p.FinalDestinationCode != nil || p.FinalTransferType != nil {
		code := c.FinalDestinationCode
		if p.FinalDestinationCode != nil {
			code = *p.FinalDestinationCode
		}
		tt := string(c.FinalTransferType)
		if p.FinalTransferType != nil {
			tt = *p.FinalTransferType
		}
		vc, vt, err := parseFinalDestination(code, tt)
		if err != nil {
			return nil, err
		}
		mark("final_destination_code", vc != c.FinalDestinationCode)
		mark("final_transfer_type", vt != c.FinalTransferType)
		c.FinalDestinationCode, c.FinalTransferType = vc, vt
	}
	if p.LegacyStatus != nil {
		v, err := ParseLegacyStatus(*p.LegacyStatus)
		if err != nil {
			return nil, err
		}
		mark("legacy_status", v != c.LegacyStatus)
		c.LegacyStatus = v
	}
	if p.RequestStatus != nil {
		v, err := ParseRequestStatus(*p.RequestStatus)
		if err != nil {
			return nil, err
		}
		mark("request_status", v != c.RequestStatus)
		c.RequestStatus = v
	}
	if p.FinalResult != nil {
		v, err := ParseFinalResult(*p.FinalResult)
		if err != nil {
			return nil, err
		}
		mark("final_result", v != c.FinalResult)
		c.FinalResult = v
	}
	if p.FinalReason != nil {
		v, err := parseFinalReason(*p.FinalReason)
		if err != nil {
			return nil, err
		}
		mark("final_reason", v != c.FinalReason)
		c.FinalReason = v
	}
	if p.ApprovedClauses != nil {
		v := normalizeClauses(*p.ApprovedClauses)
		mark("approved_clauses", v != c.ApprovedClauses)
		c.ApprovedClauses = v
	}
	if p.IsActive != nil {
		mark("is_active", *p.IsActive != c.IsActive)
		c.IsActive = *p.IsActive
	}
	if p.CanEditDestination != nil {
		mark("can_edit_destination", *p.CanEditDestination != c.CanEditDestination)
		c.CanEditDestination = *p.CanEditDestination
	}

	slices.Sort(changed)
	return changed, nil
}

// StatusChangeRequest moves a case along the workflow graph.
type StatusChangeRequest struct {
	To              string         `json:"to"`
	Reason          string         `json:"reason"`
	Metadata        map[string]any `json:"metadata"`
	ExpectedVersion *int64         `json:"expected_version"`
}

func requiredText(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.Newf(dErrors.CodeValidation, "%s is required", field)
	}
	return s, nil
}

func parseYears(v int) (int, error) {
	if v < 0 || v > MaxYearsOfService {
		return 0, dErrors.Newf(dErrors.CodeValidation, "years_of_service must be between 0 and %d", MaxYearsOfService)
	}
	return v, nil
}

func parseScore(v *float64) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "approved_score must be a non-negative number")
	}
	score := *v
	return &score, nil
}

func parseDestinations(in []DestinationInput) ([]DestinationPriority, error) {
	if len(in) > MaxDestinationPriorities {
		return nil, dErrors.Newf(dErrors.CodeValidation, "at most %d destination priorities are allowed", MaxDestinationPriorities)
	}
	out := make([]DestinationPriority, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for i, d := range in {
		code, err := domain.ParseDistrictCode("destination_priorities", d.Code)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			return nil, dErrors.Newf(dErrors.CodeValidation, "destination %s is listed more than once", code)
		}
		seen[code] = struct{}{}
		tt, err := ParseTransferType(d.TransferType)
		if err != nil {
			return nil, dErrors.Newf(dErrors.CodeValidation, "destination priority %d: transfer type must be permanent or temporary", i+1)
		}
		out = append(out, DestinationPriority{Code: code, TransferType: tt})
	}
	return out, nil
}

func parseFinalDestination(code, transferType string) (string, TransferType, error) {
	code = strings.TrimSpace(code)
	transferType = strings.TrimSpace(transferType)
	if code == "" {
		if transferType != "" {
			return "", "", dErrors.New(dErrors.CodeValidation, "final_transfer_type requires final_destination_code")
		}
		return "", "", nil
	}
	c, err := domain.ParseDistrictCode("final_destination_code", code)
	if err != nil {
		return "", "", err
	}
	if transferType == "" {
		return c, "", nil
	}
	tt, err := ParseTransferType(transferType)
	if err != nil {
		return "", "", err
	}
	return c, tt, nil
}

func parseFinalReason(s string) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxFinalReasonLength {
		return "", dErrors.Newf(dErrors.CodeValidation, "final_reason must be at most %d characters", MaxFinalReasonLength)
	}
	return s, nil
}

// normalizeClauses canonicalizes "12+14, 7" to "12,14,7".
func normalizeClauses(raw string) string {
	return strings.Join(pstrings.SplitCodes(raw), ",")
}
