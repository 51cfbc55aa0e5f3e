package service

import (
	"context"

	"transferdesk/internal/cases/models"
	"transferdesk/pkg/domain"
)

func (s *Service) Get(ctx context.Context, actor domain.Actor, id domain.CaseID) (*models.Case, error) {
	return s.loadScoped(ctx, actor, id)
}

// History returns both audit log views of a case.
func (s *Service) History(ctx context.Context, actor domain.Actor, id domain.CaseID) (models.History, error) {
	c, err := s.loadScoped(ctx, actor, id)
	if err != nil {
		return models.History{}, err
	}
	return c.History(), nil
}

// List pages through the cases visible to the actor. An actor whose scope
// cannot be resolved sees an empty list.
func (s *Service) List(ctx context.Context, actor domain.Actor, q models.ListQuery) (_ models.Page, err error) {
	ctx, span := s.startSpan(ctx, "List", domain.CaseID{})
	defer func() { endSpan(span, err) }()

	if err := q.Normalize(); err != nil {
		return models.Page{}, err
	}
	page := models.Page{Items: []*models.Case{}, Page: q.Page, Limit: q.Limit}
	filter := s.resolver.Resolve(ctx, actor)
	if filter.MatchesNothing() {
		return page, nil
	}
	items, total, err := s.store.List(ctx, filter, q)
	if err != nil {
		return models.Page{}, translateStoreError(err)
	}
	page.Items = items
	page.Total = total
	return page, nil
}

// Lookup finds cases by identifiers or final-decision attributes within the
// actor's scope.
func (s *Service) Lookup(ctx context.Context, actor domain.Actor, q models.LookupQuery) ([]*models.Case, error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}
	filter := s.resolver.Resolve(ctx, actor)
	if filter.MatchesNothing() {
		return []*models.Case{}, nil
	}
	items, err := s.store.Lookup(ctx, filter, q)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return items, nil
}
