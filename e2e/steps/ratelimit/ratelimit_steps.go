package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext is the subset of the suite context the rate limit steps need.
type TestContext interface {
	Do(ctx context.Context, method, path string, body any) error
	GetLastResponseStatus() int
	GetLastResponseHeader(name string) string
}

// RegisterSteps registers steps that exhaust and inspect request budgets.
// The server under test should run with a small RATE_LIMIT_READ.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &ratelimitSteps{tc: tc}

	ctx.Step(`^I list cases until the read budget is exhausted$`, steps.exhaustReadBudget)
	ctx.Step(`^the response should carry a Retry-After header$`, steps.shouldCarryRetryAfter)
	ctx.Step(`^the response should report (\d+) remaining requests$`, steps.shouldReportRemaining)
}

type ratelimitSteps struct {
	tc TestContext
}

const maxAttempts = 1000

func (s *ratelimitSteps) exhaustReadBudget(ctx context.Context) error {
	for range maxAttempts {
		if err := s.tc.Do(ctx, http.MethodGet, "/cases?limit=1", nil); err != nil {
			return err
		}
		if s.tc.GetLastResponseStatus() == http.StatusTooManyRequests {
			return nil
		}
	}
	return fmt.Errorf("no 429 after %d reads; is RATE_LIMIT_READ set?", maxAttempts)
}

func (s *ratelimitSteps) shouldCarryRetryAfter() error {
	raw := s.tc.GetLastResponseHeader("Retry-After")
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return fmt.Errorf("invalid Retry-After %q", raw)
	}
	return nil
}

func (s *ratelimitSteps) shouldReportRemaining(n int) error {
	if got := s.tc.GetLastResponseHeader("X-RateLimit-Remaining"); got != strconv.Itoa(n) {
		return fmt.Errorf("expected %d remaining, got %q", n, got)
	}
	return nil
}
