package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	CasesCreated             prometheus.Counter
	CasesDeleted             prometheus.Counter
	CaseUpdates              prometheus.Counter
	StatusTransitions        *prometheus.CounterVec
	TransitionsRejected      *prometheus.CounterVec
	ScopeDenials             prometheus.Counter
	IdentityProvisionFailure prometheus.Counter
	ImportRows               *prometheus.CounterVec
	RankingDuration          prometheus.Histogram
	EndpointLatency          *prometheus.HistogramVec
	RateLimited              *prometheus.CounterVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers metrics on reg. Tests pass a fresh registry so
// repeated construction does not panic on duplicate registration.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CasesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "transferdesk_cases_created_total",
			Help: "Total number of transfer cases created",
		}),
		CasesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "transferdesk_cases_deleted_total",
			Help: "Total number of transfer cases hard-deleted",
		}),
		CaseUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "transferdesk_case_updates_total",
			Help: "Total number of persisted case edits",
		}),
		StatusTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "transferdesk_status_transitions_total",
			Help: "Request status transitions applied, by target status",
		}, []string{"to"}),
		TransitionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "transferdesk_status_transitions_rejected_total",
			Help: "Request status transitions rejected by the workflow graph, by actor role",
		}, []string{"role"}),
		ScopeDenials: factory.NewCounter(prometheus.CounterOpts{
			Name: "transferdesk_scope_denials_total",
			Help: "Operations denied because the target was outside the actor's scope",
		}),
		IdentityProvisionFailure: factory.NewCounter(prometheus.CounterOpts{
			Name: "transferdesk_identity_provision_failures_total",
			Help: "Best-effort identity provisioning attempts that failed",
		}),
		ImportRows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "transferdesk_import_rows_total",
			Help: "Batch import rows processed, by outcome",
		}, []string{"outcome"}),
		RankingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "transferdesk_ranking_duration_seconds",
			Help:    "Time spent computing a peer ranking",
			Buckets: prometheus.DefBuckets,
		}),
		EndpointLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "transferdesk_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "transferdesk_rate_limited_total",
			Help: "Requests rejected by the rate limiter, by request class",
		}, []string{"class"}),
	}
}

func (m *Metrics) IncrementCasesCreated() {
	m.CasesCreated.Inc()
}

func (m *Metrics) IncrementCasesDeleted() {
	m.CasesDeleted.Inc()
}

func (m *Metrics) IncrementCaseUpdates() {
	m.CaseUpdates.Inc()
}

func (m *Metrics) IncrementStatusTransition(to string) {
	m.StatusTransitions.WithLabelValues(to).Inc()
}

func (m *Metrics) IncrementTransitionRejected(role string) {
	m.TransitionsRejected.WithLabelValues(role).Inc()
}

func (m *Metrics) IncrementScopeDenials() {
	m.ScopeDenials.Inc()
}

func (m *Metrics) IncrementIdentityProvisionFailure() {
	m.IdentityProvisionFailure.Inc()
}

func (m *Metrics) AddImportRows(outcome string, n int) {
	m.ImportRows.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) ObserveRankingDuration(start time.Time) {
	m.RankingDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveEndpointLatency(method, route, status string, d time.Duration) {
	m.EndpointLatency.WithLabelValues(method, route, status).Observe(d.Seconds())
}

func (m *Metrics) IncrementRateLimited(class string) {
	m.RateLimited.WithLabelValues(class).Inc()
}
