package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "transferdesk/pkg/domain"
	audit "transferdesk/pkg/platform/audit"
	txcontext "transferdesk/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table. When a transaction is
// present in the context the insert joins it, so an event and the change it
// describes commit together.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := audit.AuditEvent(event.Action).Category()

	var caseID *uuid.UUID
	if !event.CaseID.IsNil() {
		cid := uuid.UUID(event.CaseID)
		caseID = &cid
	}
	var payload []byte
	if len(event.Payload) > 0 {
		payload = event.Payload
	}

	query := `
		INSERT INTO audit_events (
			id, category, timestamp, case_id, subject, action,
			actor_id, reason, request_id, payload
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.New(),
		string(category),
		event.Timestamp,
		caseID,
		event.Subject,
		event.Action,
		event.ActorID,
		event.Reason,
		event.RequestID,
		payload,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByCase(ctx context.Context, caseID id.CaseID) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, case_id, subject, action,
			   actor_id, reason, request_id, payload
		FROM audit_events
		WHERE case_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(caseID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, case_id, subject, action,
			   actor_id, reason, request_id, payload
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event

	for rows.Next() {
		var (
			category string
			event    audit.Event
			caseID   *uuid.UUID
			payload  []byte
		)
		err := rows.Scan(
			&category,
			&event.Timestamp,
			&caseID,
			&event.Subject,
			&event.Action,
			&event.ActorID,
			&event.Reason,
			&event.RequestID,
			&payload,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.Category = audit.EventCategory(category)
		if caseID != nil {
			event.CaseID = id.CaseID(*caseID)
		}
		if len(payload) > 0 {
			event.Payload = payload
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
