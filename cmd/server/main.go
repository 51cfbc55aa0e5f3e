package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"transferdesk/internal/app"
	casehandler "transferdesk/internal/cases/handler"
	jwttoken "transferdesk/internal/jwt_token"
	"transferdesk/internal/platform/config"
	"transferdesk/internal/platform/httpserver"
	"transferdesk/internal/platform/logger"
	"transferdesk/internal/platform/metrics"
	"transferdesk/internal/platform/middleware"
	"transferdesk/internal/ratelimit"
	dErrors "transferdesk/pkg/domain-errors"
	"transferdesk/pkg/platform/httputil"
	"transferdesk/pkg/platform/middleware/metadata"
	"transferdesk/pkg/platform/middleware/requesttime"
)

const requestTimeout = 30 * time.Second

// main wires configuration into the app container, exposes the HTTP router and
// keeps the server lifecycle small. Business logic lives in internal services.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	a, err := app.Build(ctx, cfg, m, log)
	if err != nil {
		return err
	}
	defer a.Close()

	validator := jwttoken.NewActorValidator(jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer))
	router := newRouter(a, m, validator, ratelimit.Policy{
		ReadLimit:  cfg.RateLimit.ReadLimit,
		WriteLimit: cfg.RateLimit.WriteLimit,
		Window:     cfg.RateLimit.Window,
	}, log)
	srv := httpserver.New(cfg.Addr, router, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting transferdesk", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newRouter(a *app.App, m *metrics.Metrics, validator middleware.ActorValidator, limits ratelimit.Policy, log *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(log))
	r.Use(middleware.LatencyMiddleware(m))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.Health(r.Context()); err != nil {
			log.WarnContext(r.Context(), "health check failed", "error", err)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "unhealthy"))
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(validator, log))
		r.Use(ratelimit.Middleware(a.Limiter, limits, m, log))
		casehandler.New(a.Cases, a.Ranking, a.Importer, log).Register(r)
	})
	return r
}
