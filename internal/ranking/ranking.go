// Package ranking computes an applicant's competition rank among peers in the
// same field and source district.
package ranking

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"transferdesk/internal/cases/models"
	"transferdesk/internal/cases/store"
	"transferdesk/internal/fields"
	"transferdesk/internal/platform/metrics"
	"transferdesk/internal/scope"
	"transferdesk/pkg/domain"
	dErrors "transferdesk/pkg/domain-errors"
	"transferdesk/pkg/platform/sentinel"
	pstrings "transferdesk/pkg/platform/strings"
	"transferdesk/pkg/requestcontext"
)

type ScopeResolver interface {
	Resolve(ctx context.Context, actor domain.Actor) scope.Filter
}

// StatusRank is the rank restricted to one request status.
type StatusRank struct {
	Total int `json:"total"`
	Rank  int `json:"rank"`
}

type Result struct {
	CaseID          string                              `json:"case_id"`
	Rank            int                                 `json:"rank"`
	TotalEligible   int                                 `json:"total_eligible"`
	Statuses        []models.RequestStatus              `json:"statuses"`
	StatusBreakdown map[models.RequestStatus]StatusRank `json:"status_breakdown"`
}

type Calculator struct {
	store    store.Store
	resolver ScopeResolver
	catalog  *fields.Catalog
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

type Option func(*Calculator)

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Calculator) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Calculator) {
		c.logger = logger
	}
}

func New(st store.Store, resolver ScopeResolver, catalog *fields.Catalog, opts ...Option) (*Calculator, error) {
	if st == nil {
		return nil, errors.New("case store is required")
	}
	if resolver == nil {
		return nil, errors.New("scope resolver is required")
	}
	if catalog == nil {
		return nil, errors.New("field catalog is required")
	}
	c := &Calculator{
		store:    st,
		resolver: resolver,
		catalog:  catalog,
		logger:   slog.Default(),
		tracer:   otel.Tracer("transferdesk/internal/ranking"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ParseStatuses reads a comma-separated status list. Empty input selects the
// default in-pipeline set.
func ParseStatuses(raw string) ([]models.RequestStatus, error) {
	parts := pstrings.DedupeAndTrim(strings.Split(raw, ","))
	if len(parts) == 0 {
		return models.DefaultRankingStatuses(), nil
	}
	out := make([]models.RequestStatus, 0, len(parts))
	for _, p := range parts {
		st, err := models.ParseRequestStatus(p)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// Rank places the case among peers with the same field code and source
// district whose status is in statuses and who have a score. Peers of the
// other gender are excluded unless the field pools genders. Rank is one plus
// the number of strictly higher scores, so ties share a rank.
func (c *Calculator) Rank(ctx context.Context, actor domain.Actor, id domain.CaseID, statuses []models.RequestStatus) (_ Result, err error) {
	ctx, span := c.tracer.Start(ctx, "ranking.Rank", trace.WithAttributes(attribute.String("case.id", id.String())))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
		}
		span.End()
	}()
	start := time.Now()
	if c.metrics != nil {
		defer c.metrics.ObserveRankingDuration(start)
	}

	if len(statuses) == 0 {
		statuses = models.DefaultRankingStatuses()
	}
	selected := make([]models.RequestStatus, 0, len(statuses))
	for _, st := range statuses {
		if !st.IsValid() {
			return Result{}, dErrors.Newf(dErrors.CodeValidation, "unknown request status %q", st)
		}
		if !slices.Contains(selected, st) {
			selected = append(selected, st)
		}
	}

	target, err := c.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Result{}, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load case")
	}
	filter := c.resolver.Resolve(ctx, actor)
	if filter.MatchesNothing() || !filter.Matches(target.ScopeSubject()) {
		if c.metrics != nil {
			c.metrics.IncrementScopeDenials()
		}
		return Result{}, dErrors.New(dErrors.CodeForbidden, "case is outside your access scope")
	}
	if err := rankable(target); err != nil {
		return Result{}, err
	}

	pool := models.PoolQuery{
		FieldCode:          target.FieldCode,
		SourceDistrictCode: target.SourceDistrictCode,
		Statuses:           selected,
		Score:              *target.ApprovedScore,
	}
	if !c.catalog.IsGenderShared(target.FieldCode) {
		pool.Gender = target.Gender
	}
	counts, err := c.store.RankAggregate(ctx, pool)
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate ranking pool")
	}

	result := Result{
		CaseID:          target.ID.String(),
		Statuses:        selected,
		StatusBreakdown: make(map[models.RequestStatus]StatusRank, len(selected)),
	}
	better := 0
	for _, st := range selected {
		result.StatusBreakdown[st] = StatusRank{Rank: 1}
	}
	for _, sc := range counts {
		result.TotalEligible += sc.Total
		better += sc.Better
		result.StatusBreakdown[sc.Status] = StatusRank{Total: sc.Total, Rank: 1 + sc.Better}
	}
	result.Rank = 1 + better

	c.logger.DebugContext(ctx, "ranking computed",
		"case_id", result.CaseID,
		"rank", result.Rank,
		"total_eligible", result.TotalEligible,
		"request_id", requestcontext.RequestID(ctx),
	)
	return result, nil
}

func rankable(c *models.Case) error {
	switch {
	case c.FieldCode == "":
		return dErrors.New(dErrors.CodeValidation, "case has no field code")
	case c.SourceDistrictCode == "":
		return dErrors.New(dErrors.CodeValidation, "case has no source district")
	case c.Gender == "":
		return dErrors.New(dErrors.CodeValidation, "case has no gender")
	case c.ApprovedScore == nil:
		return dErrors.New(dErrors.CodeValidation, "case has no approved score")
	}
	return nil
}
