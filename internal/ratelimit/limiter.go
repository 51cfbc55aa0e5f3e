package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"transferdesk/pkg/platform/circuit"
)

// Limiter consults the primary store and switches to the fallback while the
// breaker is open. Degraded reports whether the fallback answered.
type Limiter struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

type LimiterOption func(*Limiter)

func WithFallback(fallback Store, breaker *circuit.Breaker) LimiterOption {
	return func(l *Limiter) {
		l.fallback = fallback
		l.breaker = breaker
	}
}

func WithLogger(logger *slog.Logger) LimiterOption {
	return func(l *Limiter) {
		l.logger = logger
	}
}

func NewLimiter(primary Store, opts ...LimiterOption) (*Limiter, error) {
	if primary == nil {
		return nil, errors.New("rate limit store is required")
	}
	l := &Limiter{primary: primary, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Limiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (res Result, degraded bool, err error) {
	res, err = l.primary.Allow(ctx, key, limit, window)
	if l.fallback == nil {
		return res, false, err
	}
	if err != nil {
		_, change := l.breaker.RecordFailure()
		if change.Opened {
			l.logger.WarnContext(ctx, "rate limit store failing, using in-memory fallback",
				"breaker", l.breaker.Name(),
				"error", err,
			)
		}
		res, err = l.fallback.Allow(ctx, key, limit, window)
		return res, true, err
	}
	usePrimary, change := l.breaker.RecordSuccess()
	if change.Closed {
		l.logger.InfoContext(ctx, "rate limit store recovered", "breaker", l.breaker.Name())
	}
	if !usePrimary {
		res, err = l.fallback.Allow(ctx, key, limit, window)
		return res, true, err
	}
	return res, false, nil
}
