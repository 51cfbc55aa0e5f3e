// Package service implements the case record operations and the status
// transition protocol. Every operation is gated by the actor's access scope.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"transferdesk/internal/cases/models"
	"transferdesk/internal/cases/store"
	"transferdesk/internal/fields"
	"transferdesk/internal/geo"
	identitymodels "transferdesk/internal/identity/models"
	"transferdesk/internal/platform/metrics"
	"transferdesk/internal/scope"
	"transferdesk/pkg/domain"
	dErrors "transferdesk/pkg/domain-errors"
	audit "transferdesk/pkg/platform/audit"
	"transferdesk/pkg/platform/middleware/metadata"
	"transferdesk/pkg/platform/sentinel"
	"transferdesk/pkg/requestcontext"
)

// ScopeResolver turns an actor into the filter gating case access.
type ScopeResolver interface {
	Resolve(ctx context.Context, actor domain.Actor) scope.Filter
}

// IdentityProvisioner maintains the applicant identity linked to a case.
type IdentityProvisioner interface {
	EnsureProvisioned(ctx context.Context, profile identitymodels.Profile) (bool, error)
	SyncProfile(ctx context.Context, profile identitymodels.Profile) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          store.Store
	registry       geo.Registry
	resolver       ScopeResolver
	identities     IdentityProvisioner
	auditPublisher AuditPublisher
	catalog        *fields.Catalog
	metrics        *metrics.Metrics
	logger         *slog.Logger
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = p
	}
}

func WithIdentityProvisioner(p IdentityProvisioner) Option {
	return func(s *Service) {
		s.identities = p
	}
}

// WithFieldCatalog rejects unknown field codes and fills missing field titles.
func WithFieldCatalog(c *fields.Catalog) Option {
	return func(s *Service) {
		s.catalog = c
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func New(st store.Store, registry geo.Registry, resolver ScopeResolver, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("case store is required")
	}
	if registry == nil {
		return nil, errors.New("geographic registry is required")
	}
	if resolver == nil {
		return nil, errors.New("scope resolver is required")
	}
	s := &Service{
		store:    st,
		registry: registry,
		resolver: resolver,
		logger:   slog.Default(),
		tracer:   otel.Tracer("transferdesk/internal/cases/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) startSpan(ctx context.Context, name string, caseID domain.CaseID) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "cases."+name)
	if !caseID.IsNil() {
		span.SetAttributes(attribute.String("case.id", caseID.String()))
	}
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	}
	span.End()
}

// authorize checks that the filter admits the case. Denials are counted and
// reported to the security audit stream.
func (s *Service) authorize(ctx context.Context, actor domain.Actor, filter scope.Filter, c *models.Case) error {
	if !filter.MatchesNothing() && filter.Matches(c.ScopeSubject()) {
		return nil
	}
	if s.metrics != nil {
		s.metrics.IncrementScopeDenials()
	}
	reason := "case is outside the actor's scope"
	if filter.MatchesNothing() {
		reason = filter.Reason
	}
	origin, _ := json.Marshal(map[string]string{
		"client_ip": metadata.GetClientIP(ctx),
		"device":    metadata.Device(metadata.GetUserAgent(ctx)),
	})
	s.emitBestEffort(ctx, audit.Event{
		CaseID:  c.ID,
		Subject: c.PersonnelCode,
		Action:  string(audit.EventScopeDenied),
		ActorID: actor.Label(),
		Reason:  reason,
		Payload: origin,
	})
	return dErrors.New(dErrors.CodeForbidden, "case is outside your access scope")
}

// loadScoped returns the case if the actor may see it.
func (s *Service) loadScoped(ctx context.Context, actor domain.Actor, id domain.CaseID) (*models.Case, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translateStoreError(err)
	}
	if err := s.authorize(ctx, actor, s.resolver.Resolve(ctx, actor), c); err != nil {
		return nil, err
	}
	return c, nil
}

// validateReferences resolves every district code on the case in the registry.
func (s *Service) validateReferences(ctx context.Context, c *models.Case) error {
	for _, code := range c.ReferencedDistrictCodes() {
		if _, err := s.registry.DistrictByCode(ctx, code); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.Newf(dErrors.CodeValidation, "unknown district code %s", code)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve district code")
		}
	}
	return nil
}

func (s *Service) applyCatalog(c *models.Case) error {
	if s.catalog == nil {
		return nil
	}
	f, ok := s.catalog.Get(c.FieldCode)
	if !ok {
		return dErrors.Newf(dErrors.CodeValidation, "unknown field code %s", c.FieldCode)
	}
	if c.FieldTitle == "" {
		c.FieldTitle = f.Title
	}
	return nil
}

func translateStoreError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "case not found")
	case errors.Is(err, store.ErrPersonnelCodeTaken):
		return dErrors.New(dErrors.CodeConflict, "a case with this personnel code already exists")
	case errors.Is(err, store.ErrNationalIDTaken):
		return dErrors.New(dErrors.CodeConflict, "a case with this national id already exists")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "case already exists")
	case errors.Is(err, sentinel.ErrStaleVersion):
		return dErrors.New(dErrors.CodeConflict, "stale_version: case was modified by another request")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "case store failure")
	}
}

func checkVersion(expected *int64, current *models.Case) error {
	if expected != nil && *expected != current.Version {
		return sentinel.ErrStaleVersion
	}
	return nil
}

// emit fills the request-scoped fields and publishes the event.
func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	event.RequestID = requestcontext.RequestID(ctx)
	return s.auditPublisher.Emit(ctx, event)
}

func (s *Service) emitBestEffort(ctx context.Context, event audit.Event) {
	if err := s.emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"case_id", event.CaseID.String(),
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

func snapshot(c *models.Case) (json.RawMessage, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func profileOf(c *models.Case) identitymodels.Profile {
	return identitymodels.Profile{
		NationalID:    c.NationalID,
		PersonnelCode: c.PersonnelCode,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		Phone:         c.Phone,
	}
}
