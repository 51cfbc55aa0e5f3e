package models

import (
	"strings"
	"time"

	"transferdesk/internal/scope"
	"transferdesk/pkg/domain"
	dErrors "transferdesk/pkg/domain-errors"
)

const (
	MaxDestinationPriorities = 7
	MaxFinalReasonLength     = 500
	MaxYearsOfService        = 50
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func ParseGender(raw string) (Gender, error) {
	g := Gender(strings.ToLower(strings.TrimSpace(raw)))
	if g != GenderMale && g != GenderFemale {
		return "", dErrors.New(dErrors.CodeValidation, "gender must be male or female")
	}
	return g, nil
}

// TransferType tags a destination priority or the final destination.
type TransferType string

const (
	TransferPermanent TransferType = "permanent"
	TransferTemporary TransferType = "temporary"
)

func ParseTransferType(raw string) (TransferType, error) {
	t := TransferType(strings.ToLower(strings.TrimSpace(raw)))
	if t != TransferPermanent && t != TransferTemporary {
		return "", dErrors.New(dErrors.CodeValidation, "transfer type must be permanent or temporary")
	}
	return t, nil
}

type FinalResult string

const (
	FinalResultNone          FinalResult = ""
	FinalResultTransferred   FinalResult = "transferred"
	FinalResultNotTransfered FinalResult = "not_transferred"
	FinalResultConditional   FinalResult = "conditional"
)

func ParseFinalResult(raw string) (FinalResult, error) {
	r := FinalResult(strings.TrimSpace(raw))
	switch r {
	case FinalResultNone, FinalResultTransferred, FinalResultNotTransfered, FinalResultConditional:
		return r, nil
	}
	return "", dErrors.Newf(dErrors.CodeValidation, "unknown final result %q", raw)
}

type DestinationPriority struct {
	Code         string       `json:"code"`
	TransferType TransferType `json:"transfer_type"`
}

// Case is one applicant's transfer request. The audit trail is append-only and
// owned by the case; Version increases on every persisted mutation.
type Case struct {
	ID domain.CaseID `json:"id"`

	PersonnelCode string `json:"personnel_code"`
	NationalID    string `json:"national_id,omitempty"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Phone         string `json:"phone,omitempty"`

	EmploymentType string   `json:"employment_type"`
	Gender         Gender   `json:"gender"`
	YearsOfService int      `json:"years_of_service"`
	FieldCode      string   `json:"field_code"`
	FieldTitle     string   `json:"field_title"`
	ApprovedScore  *float64 `json:"approved_score"`

	CurrentWorkPlaceCode  string                `json:"current_work_place_code"`
	SourceDistrictCode    string                `json:"source_district_code"`
	DestinationPriorities []DestinationPriority `json:"destination_priorities"`
	FinalDestinationCode  string                `json:"final_destination_code,omitempty"`
	FinalTransferType     TransferType          `json:"final_transfer_type,omitempty"`

	LegacyStatus  LegacyStatus  `json:"legacy_status"`
	RequestStatus RequestStatus `json:"request_status"`
	AuditTrail    []AuditEntry  `json:"audit_trail"`

	FinalResult     FinalResult `json:"final_result,omitempty"`
	FinalReason     string      `json:"final_reason,omitempty"`
	ApprovedClauses string      `json:"approved_clauses,omitempty"`

	IsActive           bool `json:"is_active"`
	CanEditDestination bool `json:"can_edit_destination"`

	Version   int64     `json:"version"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScopeSubject exposes the attributes access filters evaluate.
func (c *Case) ScopeSubject() scope.Subject {
	return scope.Subject{
		CurrentWorkPlaceCode: c.CurrentWorkPlaceCode,
		SourceDistrictCode:   c.SourceDistrictCode,
		NationalID:           c.NationalID,
	}
}

// ReferencedDistrictCodes lists every district code the case points at, for
// registry validation.
func (c *Case) ReferencedDistrictCodes() []string {
	codes := []string{c.CurrentWorkPlaceCode, c.SourceDistrictCode}
	for _, p := range c.DestinationPriorities {
		codes = append(codes, p.Code)
	}
	if c.FinalDestinationCode != "" {
		codes = append(codes, c.FinalDestinationCode)
	}
	return codes
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	out := *c
	if c.ApprovedScore != nil {
		score := *c.ApprovedScore
		out.ApprovedScore = &score
	}
	out.DestinationPriorities = append([]DestinationPriority(nil), c.DestinationPriorities...)
	out.AuditTrail = make([]AuditEntry, len(c.AuditTrail))
	for i, e := range c.AuditTrail {
		out.AuditTrail[i] = e.clone()
	}
	return &out
}
