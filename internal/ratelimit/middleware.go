package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"transferdesk/internal/platform/metrics"
	dErrors "transferdesk/pkg/domain-errors"
	"transferdesk/pkg/platform/httputil"
	"transferdesk/pkg/platform/middleware/metadata"
	"transferdesk/pkg/requestcontext"
)

// Policy sets per-caller budgets. Reads are GET and HEAD; everything else is
// a write. A zero limit disables that class.
type Policy struct {
	ReadLimit  int
	WriteLimit int
	Window     time.Duration
}

const (
	classRead  = "read"
	classWrite = "write"
)

// Middleware enforces policy per authenticated actor, or per client IP when
// no actor is present. Limiter errors let the request through.
func Middleware(l *Limiter, policy Policy, m *metrics.Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			class, limit := classRead, policy.ReadLimit
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				class, limit = classWrite, policy.WriteLimit
			}
			if limit <= 0 || policy.Window <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			subject := "ip:" + metadata.GetClientIP(ctx)
			if actor, ok := requestcontext.Actor(ctx); ok {
				subject = "actor:" + actor.ID.String()
			}
			res, degraded, err := l.Allow(ctx, class+":"+subject, limit, policy.Window)
			if err != nil {
				logger.ErrorContext(ctx, "rate limit check failed",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))
			if degraded {
				w.Header().Set("X-RateLimit-Status", "degraded")
			}
			if !res.Allowed {
				if m != nil {
					m.IncrementRateLimited(class)
				}
				retry := res.RetryAfter(time.Now())
				w.Header().Set("Retry-After", strconv.Itoa(int(retry.Round(time.Second).Seconds())))
				logger.WarnContext(ctx, "rate limit exceeded",
					"class", class,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
