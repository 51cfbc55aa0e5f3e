package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"transferdesk/internal/cases/models"
	"transferdesk/internal/scope"
	"transferdesk/pkg/domain"
	"transferdesk/pkg/platform/sentinel"
)

// InMemoryStore keeps cases in a map guarded by one mutex. Execute holds the
// write lock across validate and mutate, so writes to a case are serialized.
type InMemoryStore struct {
	mu    sync.RWMutex
	cases map[domain.CaseID]*models.Case
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{cases: make(map[domain.CaseID]*models.Case)}
}

func (s *InMemoryStore) Create(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cases[c.ID]; exists {
		return fmt.Errorf("case %s: %w", c.ID, sentinel.ErrAlreadyUsed)
	}
	if err := s.checkUniqueLocked(c); err != nil {
		return err
	}
	s.cases[c.ID] = c.Clone()
	return nil
}

// checkUniqueLocked enforces the personnel code and national id keys.
func (s *InMemoryStore) checkUniqueLocked(c *models.Case) error {
	for id, other := range s.cases {
		if id == c.ID {
			continue
		}
		if other.PersonnelCode == c.PersonnelCode {
			return ErrPersonnelCodeTaken
		}
		if c.NationalID != "" && other.NationalID == c.NationalID {
			return ErrNationalIDTaken
		}
	}
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.CaseID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *InMemoryStore) FindByPersonnelCode(_ context.Context, code string) (*models.Case, error) {
	return s.findFirst(func(c *models.Case) bool { return c.PersonnelCode == code })
}

func (s *InMemoryStore) FindByNationalID(_ context.Context, nationalID string) (*models.Case, error) {
	if nationalID == "" {
		return nil, sentinel.ErrNotFound
	}
	return s.findFirst(func(c *models.Case) bool { return c.NationalID == nationalID })
}

func (s *InMemoryStore) findFirst(match func(*models.Case) bool) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cases {
		if match(c) {
			return c.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Execute(_ context.Context, id domain.CaseID, validate ValidateFunc, mutate MutateFunc) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.cases[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(current.Clone()); err != nil {
			return nil, err
		}
	}
	next := current.Clone()
	mutate(next)
	next.ID = current.ID
	next.Version = current.Version + 1
	if err := s.checkUniqueLocked(next); err != nil {
		return nil, err
	}
	s.cases[id] = next
	return next.Clone(), nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.CaseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.cases, id)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter scope.Filter, q models.ListQuery) ([]*models.Case, int, error) {
	matches := s.collect(func(c *models.Case) bool {
		return filter.Matches(c.ScopeSubject()) && q.Matches(c)
	})
	total := len(matches)
	start := min(max(q.Offset(), 0), total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	return matches[start:end], total, nil
}

func (s *InMemoryStore) Lookup(_ context.Context, filter scope.Filter, q models.LookupQuery) ([]*models.Case, error) {
	matches := s.collect(func(c *models.Case) bool {
		return filter.Matches(c.ScopeSubject()) && q.Matches(c)
	})
	if len(matches) > models.MaxPageLimit {
		matches = matches[:models.MaxPageLimit]
	}
	return matches, nil
}

// collect returns clones of matching cases, newest first.
func (s *InMemoryStore) collect(match func(*models.Case) bool) []*models.Case {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Case, 0)
	if match == nil {
		return out
	}
	for _, c := range s.cases {
		if match(c) {
			out = append(out, c.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.Case) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return out
}

func compareIDs(a, b domain.CaseID) int {
	return slices.Compare(a[:], b[:])
}

func (s *InMemoryStore) RankAggregate(_ context.Context, q models.PoolQuery) ([]models.StatusCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.RequestStatus]*models.StatusCount)
	for _, c := range s.cases {
		if c.FieldCode != q.FieldCode || c.SourceDistrictCode != q.SourceDistrictCode {
			continue
		}
		if q.Gender != "" && c.Gender != q.Gender {
			continue
		}
		if c.ApprovedScore == nil || !slices.Contains(q.Statuses, c.RequestStatus) {
			continue
		}
		sc, ok := counts[c.RequestStatus]
		if !ok {
			sc = &models.StatusCount{Status: c.RequestStatus}
			counts[c.RequestStatus] = sc
		}
		sc.Total++
		if *c.ApprovedScore > q.Score {
			sc.Better++
		}
	}

	out := make([]models.StatusCount, 0, len(counts))
	for _, st := range q.Statuses {
		if sc, ok := counts[st]; ok {
			out = append(out, *sc)
		}
	}
	return out, nil
}
