// Package app assembles stores, registries and services from configuration.
// The server and the admin CLI share it so both run against the same wiring.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	casesservice "transferdesk/internal/cases/service"
	casesstore "transferdesk/internal/cases/store"
	"transferdesk/internal/fields"
	"transferdesk/internal/geo"
	identityservice "transferdesk/internal/identity/service"
	identitystore "transferdesk/internal/identity/store"
	"transferdesk/internal/importer"
	"transferdesk/internal/platform/config"
	"transferdesk/internal/platform/database"
	"transferdesk/internal/platform/metrics"
	"transferdesk/internal/platform/redis"
	"transferdesk/internal/ranking"
	"transferdesk/internal/ratelimit"
	"transferdesk/internal/scope"
	audit "transferdesk/pkg/platform/audit"
	"transferdesk/pkg/platform/audit/publisher"
	"transferdesk/pkg/platform/audit/publishers/kafka"
	auditmemory "transferdesk/pkg/platform/audit/store/memory"
	auditpostgres "transferdesk/pkg/platform/audit/store/postgres"
	"transferdesk/pkg/platform/circuit"
)

const auditBufferSize = 1024

// App holds the assembled dependencies. DB and Redis are nil when the
// corresponding URL is not configured.
type App struct {
	DB       *sql.DB
	Redis    *redis.Client
	Registry geo.Registry
	Geo      *geo.PostgresRegistry
	Catalog  *fields.Catalog
	Metrics  *metrics.Metrics

	Cases      *casesservice.Service
	Ranking    *ranking.Calculator
	Importer   *importer.Importer
	Identities *identityservice.Service
	Audit      *publisher.Publisher
	Limiter    *ratelimit.Limiter

	sink *kafka.Sink
}

// Build connects to the configured backends and wires every service. With no
// DATABASE_URL the stores are in memory and the registry comes from the seed
// file.
func Build(ctx context.Context, cfg config.Server, m *metrics.Metrics, logger *slog.Logger) (_ *App, err error) {
	a := &App{Metrics: m}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if a.Catalog, err = fields.Load(cfg.FieldsFile); err != nil {
		return nil, fmt.Errorf("load field catalog: %w", err)
	}

	var (
		caseStore     casesstore.Store
		identityStore identitystore.Store
		auditStore    audit.Store
	)
	if cfg.Database.URL != "" {
		a.DB, err = database.Open(ctx, database.Config{
			URL:             cfg.Database.URL,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(a.DB); err != nil {
			return nil, err
		}
		a.Geo = geo.NewPostgres(a.DB)
		a.Registry = a.Geo
		caseStore = casesstore.NewPostgres(a.DB)
		identityStore = identitystore.NewPostgres(a.DB)
		auditStore = auditpostgres.New(a.DB)
		logger.InfoContext(ctx, "using postgres storage")
	} else {
		if cfg.GeoSeedFile == "" {
			return nil, errors.New("GEO_SEED_FILE is required without DATABASE_URL")
		}
		if a.Registry, err = geo.LoadSeedFile(cfg.GeoSeedFile); err != nil {
			return nil, err
		}
		caseStore = casesstore.NewInMemory()
		identityStore = identitystore.NewInMemory()
		auditStore = auditmemory.NewInMemoryStore()
		logger.WarnContext(ctx, "DATABASE_URL not set, using in-memory storage")
	}

	if a.Redis, err = redis.New(ctx, cfg.Redis); err != nil {
		return nil, err
	}
	if a.Redis != nil {
		a.Registry = geo.NewCachedRegistry(a.Registry, a.Redis, cfg.Redis.CacheTTL, logger)
		a.Limiter, err = ratelimit.NewLimiter(ratelimit.NewRedis(a.Redis),
			ratelimit.WithFallback(ratelimit.NewInMemory(), circuit.New("ratelimit-redis")),
			ratelimit.WithLogger(logger),
		)
	} else {
		a.Limiter, err = ratelimit.NewLimiter(ratelimit.NewInMemory(), ratelimit.WithLogger(logger))
	}
	if err != nil {
		return nil, err
	}

	publisherOpts := []publisher.Option{publisher.WithLogger(logger), publisher.WithAsyncBuffer(auditBufferSize)}
	if len(cfg.Kafka.Brokers) > 0 {
		if err = kafka.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, 1, 1); err != nil {
			return nil, err
		}
		if a.sink, err = kafka.New(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic); err != nil {
			return nil, err
		}
		publisherOpts = append(publisherOpts, publisher.WithSink(a.sink))
	}
	a.Audit = publisher.NewPublisher(auditStore, publisherOpts...)

	if a.Identities, err = identityservice.New(identityStore, identityservice.WithLogger(logger)); err != nil {
		return nil, err
	}

	resolver := scope.NewResolver(a.Registry, logger)
	a.Cases, err = casesservice.New(caseStore, a.Registry, resolver,
		casesservice.WithLogger(logger),
		casesservice.WithMetrics(m),
		casesservice.WithAuditPublisher(a.Audit),
		casesservice.WithIdentityProvisioner(a.Identities),
		casesservice.WithFieldCatalog(a.Catalog),
	)
	if err != nil {
		return nil, err
	}
	if a.Ranking, err = ranking.New(caseStore, resolver, a.Catalog, ranking.WithMetrics(m), ranking.WithLogger(logger)); err != nil {
		return nil, err
	}
	a.Importer, err = importer.New(a.Cases,
		importer.WithLogger(logger),
		importer.WithMetrics(m),
		importer.WithAuditPublisher(a.Audit),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Health reports whether the configured backends answer.
func (a *App) Health(ctx context.Context) error {
	if a.DB != nil {
		if err := a.DB.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Health(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Close drains the audit buffer before releasing connections.
func (a *App) Close() {
	if a.Audit != nil {
		a.Audit.Close()
	}
	if a.sink != nil {
		a.sink.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}
