// Package store persists transfer cases. Implementations return
// pkg/platform/sentinel errors for persistence facts and never share mutable
// state with callers.
package store

import (
	"context"
	"fmt"

	"transferdesk/internal/cases/models"
	"transferdesk/internal/scope"
	"transferdesk/pkg/domain"
	"transferdesk/pkg/platform/sentinel"
)

// Unique key violations. Both wrap sentinel.ErrAlreadyUsed.
var (
	ErrPersonnelCodeTaken = fmt.Errorf("personnel code: %w", sentinel.ErrAlreadyUsed)
	ErrNationalIDTaken    = fmt.Errorf("national id: %w", sentinel.ErrAlreadyUsed)
)

// ValidateFunc inspects the current record before a mutation. Returning an
// error aborts the write.
type ValidateFunc func(current *models.Case) error

// MutateFunc edits a private copy of the record in place.
type MutateFunc func(c *models.Case)

// Store is the case persistence contract.
type Store interface {
	// Create inserts a new case. A taken personnel code or national id yields
	// sentinel.ErrAlreadyUsed.
	Create(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, id domain.CaseID) (*models.Case, error)
	FindByPersonnelCode(ctx context.Context, code string) (*models.Case, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.Case, error)
	// Execute runs validate then mutate against the latest version of the case
	// as one atomic step and persists the result with Version incremented.
	Execute(ctx context.Context, id domain.CaseID, validate ValidateFunc, mutate MutateFunc) (*models.Case, error)
	Delete(ctx context.Context, id domain.CaseID) error
	// List returns one page of cases visible through the filter plus the total
	// number of matches.
	List(ctx context.Context, filter scope.Filter, q models.ListQuery) ([]*models.Case, int, error)
	Lookup(ctx context.Context, filter scope.Filter, q models.LookupQuery) ([]*models.Case, error)
	// RankAggregate groups the ranking pool by request status in one pass.
	RankAggregate(ctx context.Context, q models.PoolQuery) ([]models.StatusCount, error)
}
