package e2e

import (
	"github.com/cucumber/godog"

	"transferdesk/e2e/steps/cases"
	"transferdesk/e2e/steps/common"
	"transferdesk/e2e/steps/ratelimit"
)

// RegisterSteps registers all step definitions from the step packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	cases.RegisterSteps(ctx, tc)
	ratelimit.RegisterSteps(ctx, tc)
}
