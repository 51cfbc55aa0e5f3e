// Package importer creates cases in bulk. Rows are processed sequentially and
// a failing row never stops the batch.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"transferdesk/internal/cases/models"
	"transferdesk/internal/platform/metrics"
	"transferdesk/pkg/domain"
	dErrors "transferdesk/pkg/domain-errors"
	audit "transferdesk/pkg/platform/audit"
	"transferdesk/pkg/requestcontext"
)

// MaxRows caps a single batch.
const MaxRows = 5000

type CaseCreator interface {
	Create(ctx context.Context, actor domain.Actor, req models.CreateRequest) (*models.Case, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type RowResult struct {
	Row           int    `json:"row"`
	PersonnelCode string `json:"personnel_code"`
	CaseID        string `json:"case_id"`
}

type RowError struct {
	Row           int    `json:"row"`
	PersonnelCode string `json:"personnel_code"`
	Code          string `json:"code"`
	Message       string `json:"message"`
}

type Report struct {
	TotalRows    int         `json:"total_rows"`
	SuccessCount int         `json:"success_count"`
	ErrorCount   int         `json:"error_count"`
	Results      []RowResult `json:"results"`
	Errors       []RowError  `json:"errors"`
}

type Importer struct {
	cases          CaseCreator
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

type Option func(*Importer)

func WithLogger(logger *slog.Logger) Option {
	return func(i *Importer) {
		i.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(i *Importer) {
		i.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(i *Importer) {
		i.auditPublisher = p
	}
}

func New(cases CaseCreator, opts ...Option) (*Importer, error) {
	if cases == nil {
		return nil, errors.New("case creator is required")
	}
	i := &Importer{cases: cases, logger: slog.Default()}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Import creates one case per row. The call succeeds as long as the batch
// itself is acceptable; per-row failures are reported in the result.
func (i *Importer) Import(ctx context.Context, actor domain.Actor, rows []models.CreateRequest) (Report, error) {
	if actor.Role == domain.RoleApplicant || !actor.Role.IsValid() {
		return Report{}, dErrors.New(dErrors.CodeForbidden, "role may not import cases")
	}
	if len(rows) == 0 {
		return Report{}, dErrors.New(dErrors.CodeValidation, "import contains no rows")
	}
	if len(rows) > MaxRows {
		return Report{}, dErrors.Newf(dErrors.CodeValidation, "import exceeds %d rows", MaxRows)
	}

	report := Report{
		TotalRows: len(rows),
		Results:   []RowResult{},
		Errors:    []RowError{},
	}
	for n, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, dErrors.Wrap(err, dErrors.CodeTimeout, "import interrupted")
		}
		c, err := i.cases.Create(ctx, actor, row)
		if err != nil {
			report.Errors = append(report.Errors, rowError(n+1, row.PersonnelCode, err))
			continue
		}
		report.Results = append(report.Results, RowResult{
			Row:           n + 1,
			PersonnelCode: c.PersonnelCode,
			CaseID:        c.ID.String(),
		})
	}
	report.SuccessCount = len(report.Results)
	report.ErrorCount = len(report.Errors)

	if i.metrics != nil {
		i.metrics.AddImportRows("success", report.SuccessCount)
		i.metrics.AddImportRows("error", report.ErrorCount)
	}
	i.logger.InfoContext(ctx, "import completed",
		"actor", actor.Label(),
		"total", report.TotalRows,
		"succeeded", report.SuccessCount,
		"failed", report.ErrorCount,
		"request_id", requestcontext.RequestID(ctx),
	)
	if i.auditPublisher != nil {
		err := i.auditPublisher.Emit(ctx, audit.Event{
			Timestamp: requestcontext.Now(ctx),
			Action:    string(audit.EventImportCompleted),
			ActorID:   actor.Label(),
			RequestID: requestcontext.RequestID(ctx),
			Reason:    fmt.Sprintf("%d of %d rows imported", report.SuccessCount, report.TotalRows),
		})
		if err != nil {
			i.logger.WarnContext(ctx, "failed to emit import audit event", "error", err)
		}
	}
	return report, nil
}

func rowError(row int, personnelCode string, err error) RowError {
	code := dErrors.CodeOf(err)
	msg := "internal error"
	if de, ok := dErrors.As(err); ok && code != dErrors.CodeInternal {
		msg = de.Message
	}
	return RowError{Row: row, PersonnelCode: personnelCode, Code: string(code), Message: msg}
}
