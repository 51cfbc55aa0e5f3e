package models

import (
	"maps"
	"time"
)

// EntryKind discriminates audit trail entries.
type EntryKind string

const (
	EntryCreated            EntryKind = "created"
	EntryUpdated            EntryKind = "updated"
	EntryStatusChange       EntryKind = "status_change"
	EntryLegacyStatusChange EntryKind = "legacy_status_change"
	EntryActivationChange   EntryKind = "activation_change"
)

// AuditEntry is the single canonical trail record. The generic audit log and
// the workflow log are projections of it.
type AuditEntry struct {
	Kind          EntryKind      `json:"kind"`
	FromStatus    RequestStatus  `json:"from_status,omitempty"`
	ToStatus      RequestStatus  `json:"to_status"`
	Actor         string         `json:"actor"`
	Timestamp     time.Time      `json:"timestamp"`
	Comment       string         `json:"comment,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	ChangedFields []string       `json:"changed_fields,omitempty"`
}

func (e AuditEntry) clone() AuditEntry {
	out := e
	if e.Metadata != nil {
		out.Metadata = maps.Clone(e.Metadata)
	}
	out.ChangedFields = append([]string(nil), e.ChangedFields...)
	return out
}

// AppendEntry adds e to the trail. Its timestamp is clamped so the trail never
// goes backwards in time.
func (c *Case) AppendEntry(e AuditEntry) {
	if n := len(c.AuditTrail); n > 0 {
		if last := c.AuditTrail[n-1].Timestamp; e.Timestamp.Before(last) {
			e.Timestamp = last
		}
	}
	c.AuditTrail = append(c.AuditTrail, e)
}

// LogEntry is the generic audit log projection.
type LogEntry struct {
	FromStatus RequestStatus  `json:"from_status,omitempty"`
	ToStatus   RequestStatus  `json:"to_status"`
	ActionType EntryKind      `json:"action_type"`
	Actor      string         `json:"actor"`
	Timestamp  time.Time      `json:"timestamp"`
	Comment    string         `json:"comment,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// WorkflowEntry is the request-status workflow projection.
type WorkflowEntry struct {
	Status         RequestStatus  `json:"status"`
	PreviousStatus RequestStatus  `json:"previous_status,omitempty"`
	Actor          string         `json:"actor"`
	Timestamp      time.Time      `json:"timestamp"`
	Reason         string         `json:"reason,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// AuditLog returns every trail entry in the generic shape.
func (c *Case) AuditLog() []LogEntry {
	out := make([]LogEntry, 0, len(c.AuditTrail))
	for _, e := range c.AuditTrail {
		out = append(out, LogEntry{
			FromStatus: e.FromStatus,
			ToStatus:   e.ToStatus,
			ActionType: e.Kind,
			Actor:      e.Actor,
			Timestamp:  e.Timestamp,
			Comment:    e.Comment,
			Metadata:   e.Metadata,
		})
	}
	return out
}

// Workflow returns creation and status-change entries only. The creation entry
// carries no previous status.
func (c *Case) Workflow() []WorkflowEntry {
	out := make([]WorkflowEntry, 0, len(c.AuditTrail))
	for _, e := range c.AuditTrail {
		switch e.Kind {
		case EntryCreated:
			out = append(out, WorkflowEntry{
				Status:    e.ToStatus,
				Actor:     e.Actor,
				Timestamp: e.Timestamp,
				Reason:    e.Reason,
				Metadata:  e.Metadata,
			})
		case EntryStatusChange:
			out = append(out, WorkflowEntry{
				Status:         e.ToStatus,
				PreviousStatus: e.FromStatus,
				Actor:          e.Actor,
				Timestamp:      e.Timestamp,
				Reason:         e.Reason,
				Metadata:       e.Metadata,
			})
		}
	}
	return out
}

// History bundles both log views for the history endpoint.
type History struct {
	CaseID   string          `json:"case_id"`
	Version  int64           `json:"version"`
	AuditLog []LogEntry      `json:"audit_log"`
	Workflow []WorkflowEntry `json:"workflow"`
}

func (c *Case) History() History {
	return History{
		CaseID:   c.ID.String(),
		Version:  c.Version,
		AuditLog: c.AuditLog(),
		Workflow: c.Workflow(),
	}
}
