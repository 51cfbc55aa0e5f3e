package audit

import (
	"context"
	"encoding/json"
	"time"

	id "transferdesk/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance: case creation,
	// deletion and final decisions. Deletion events carry the case's full trail.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers access-control decisions worth alerting on.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted by services to record platform-level actions. It is separate
// from the per-case audit trail, which lives on the case record itself.
type Event struct {
	Category  EventCategory   `json:"category"`
	Timestamp time.Time       `json:"timestamp"`
	CaseID    id.CaseID       `json:"case_id"`
	Subject   string          `json:"subject"`
	Action    string          `json:"action"`
	ActorID   string          `json:"actor_id,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type AuditEvent string

const (
	EventCaseCreated       AuditEvent = "case_created"
	EventCaseUpdated       AuditEvent = "case_updated"
	EventCaseStatusChanged AuditEvent = "case_status_changed"
	EventCaseDeleted       AuditEvent = "case_deleted"

	EventScopeDenied AuditEvent = "scope_denied"

	EventIdentityProvisioned     AuditEvent = "identity_provisioned"
	EventIdentityProvisionFailed AuditEvent = "identity_provision_failed"

	EventImportCompleted AuditEvent = "import_completed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventCaseCreated:       CategoryCompliance,
	EventCaseDeleted:       CategoryCompliance,
	EventCaseStatusChanged: CategoryCompliance,

	EventScopeDenied:             CategorySecurity,
	EventIdentityProvisionFailed: CategorySecurity,

	EventCaseUpdated:         CategoryOperations,
	EventIdentityProvisioned: CategoryOperations,
	EventImportCompleted:     CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists platform audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCase(ctx context.Context, caseID id.CaseID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Sink forwards events to an external system after they are stored.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
