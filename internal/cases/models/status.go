package models

import (
	"strconv"
	"strings"

	dErrors "transferdesk/pkg/domain-errors"
)

// RequestStatus is the primary workflow state of a case.
type RequestStatus string

const (
	StatusNoAction                      RequestStatus = "no_action"
	StatusUserApproval                  RequestStatus = "user_approval"
	StatusUserCancelled                 RequestStatus = "user_cancelled"
	StatusSourceReview                  RequestStatus = "source_review"
	StatusSourceApproved                RequestStatus = "source_approved"
	StatusSourceRejected                RequestStatus = "source_rejected"
	StatusExceptionEligibilityApproval  RequestStatus = "exception_eligibility_approval"
	StatusExceptionEligibilityRejection RequestStatus = "exception_eligibility_rejection"
	StatusProvinceReview                RequestStatus = "province_review"
	StatusProvinceApproved              RequestStatus = "province_approved"
	StatusProvinceRejected              RequestStatus = "province_rejected"
	StatusDestinationReview             RequestStatus = "destination_review"
	StatusDestinationApproved           RequestStatus = "destination_approved"
	StatusDestinationRejected           RequestStatus = "destination_rejected"
	StatusTemporaryTransferApproved     RequestStatus = "temporary_transfer_approved"
	StatusPermanentTransferApproved     RequestStatus = "permanent_transfer_approved"
	StatusInvalidRequest                RequestStatus = "invalid_request"
)

var statusLabels = map[RequestStatus]string{
	StatusNoAction:                      "no action taken",
	StatusUserApproval:                  "submitted by applicant",
	StatusUserCancelled:                 "cancelled by applicant",
	StatusSourceReview:                  "under review by source district",
	StatusSourceApproved:                "approved by source district",
	StatusSourceRejected:                "rejected by source district",
	StatusExceptionEligibilityApproval:  "exception eligibility approved",
	StatusExceptionEligibilityRejection: "exception eligibility rejected",
	StatusProvinceReview:                "under review by province",
	StatusProvinceApproved:              "approved by province",
	StatusProvinceRejected:              "rejected by province",
	StatusDestinationReview:             "under review by destination district",
	StatusDestinationApproved:           "approved by destination district",
	StatusDestinationRejected:           "rejected by destination district",
	StatusTemporaryTransferApproved:     "temporary transfer approved",
	StatusPermanentTransferApproved:     "permanent transfer approved",
	StatusInvalidRequest:                "invalid request",
}

// AllRequestStatuses lists every status in workflow order.
func AllRequestStatuses() []RequestStatus {
	return []RequestStatus{
		StatusNoAction, StatusUserApproval, StatusUserCancelled,
		StatusSourceReview, StatusSourceApproved, StatusSourceRejected,
		StatusExceptionEligibilityApproval, StatusExceptionEligibilityRejection,
		StatusProvinceReview, StatusProvinceApproved, StatusProvinceRejected,
		StatusDestinationReview, StatusDestinationApproved, StatusDestinationRejected,
		StatusTemporaryTransferApproved, StatusPermanentTransferApproved,
		StatusInvalidRequest,
	}
}

// DefaultRankingStatuses is the in-pipeline set used when a ranking request
// does not choose one.
func DefaultRankingStatuses() []RequestStatus {
	return []RequestStatus{
		StatusUserApproval,
		StatusSourceReview,
		StatusSourceApproved,
		StatusExceptionEligibilityApproval,
		StatusExceptionEligibilityRejection,
		StatusProvinceReview,
		StatusProvinceApproved,
		StatusDestinationReview,
		StatusDestinationApproved,
		StatusDestinationRejected,
		StatusTemporaryTransferApproved,
		StatusPermanentTransferApproved,
	}
}

func (s RequestStatus) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the human-readable name used in audit comments.
func (s RequestStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s RequestStatus) IsTerminal() bool {
	switch s {
	case StatusTemporaryTransferApproved, StatusPermanentTransferApproved,
		StatusInvalidRequest, StatusUserCancelled:
		return true
	}
	return false
}

func ParseRequestStatus(raw string) (RequestStatus, error) {
	s := RequestStatus(strings.TrimSpace(raw))
	if !s.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown request status %q", raw)
	}
	return s, nil
}

// LegacyStatus is the older integer transfer status kept for compatibility.
// It is not part of the workflow graph.
type LegacyStatus int

const (
	LegacyAwaitingReview LegacyStatus = 1
	LegacyTransferred    LegacyStatus = 2
	LegacyNotTransferred LegacyStatus = 3
	LegacyRetained       LegacyStatus = 4
)

func (s LegacyStatus) IsValid() bool {
	return s >= LegacyAwaitingReview && s <= LegacyRetained
}

func (s LegacyStatus) Label() string {
	switch s {
	case LegacyAwaitingReview:
		return "awaiting review"
	case LegacyTransferred:
		return "transferred"
	case LegacyNotTransferred:
		return "not transferred"
	case LegacyRetained:
		return "retained in current post"
	default:
		return "legacy status " + strconv.Itoa(int(s))
	}
}

func ParseLegacyStatus(v int) (LegacyStatus, error) {
	s := LegacyStatus(v)
	if !s.IsValid() {
		return 0, dErrors.Newf(dErrors.CodeValidation, "legacy status must be between 1 and 4, got %d", v)
	}
	return s, nil
}
