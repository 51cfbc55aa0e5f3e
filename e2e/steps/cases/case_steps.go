package cases

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cucumber/godog"
)

// TestContext is the subset of the suite context the case steps need.
type TestContext interface {
	Do(ctx context.Context, method, path string, body any) error
	GetResponseField(path string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	Save(name, value string)
	Saved(name string) string
}

// RegisterSteps registers steps that create cases and walk them through the
// review workflow.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &caseSteps{tc: tc}

	ctx.Step(`^a new case from district "(\d{4})" requesting district "(\d{4})"$`, steps.newCase)
	ctx.Step(`^I move the case to "([^"]*)"$`, steps.moveCase)
	ctx.Step(`^the case should be ranked among "([^"]*)"$`, steps.caseShouldBeRanked)
	ctx.Step(`^the case history should have (\d+) workflow entries$`, steps.historyShouldHave)
}

type caseSteps struct {
	tc TestContext
}

// uniqueCodes derives a personnel code and national id that do not collide
// with earlier runs against the same database.
func uniqueCodes() (string, string) {
	n := time.Now().UnixNano()
	return fmt.Sprintf("%08d", n%100_000_000), fmt.Sprintf("%010d", n%10_000_000_000)
}

func (s *caseSteps) newCase(ctx context.Context, source, destination string) error {
	personnel, national := uniqueCodes()
	body := map[string]any{
		"personnel_code":          personnel,
		"national_id":             national,
		"first_name":              "E2E",
		"last_name":               "Applicant",
		"employment_type":         "official",
		"gender":                  "female",
		"years_of_service":        5,
		"field_code":              "F1",
		"approved_score":          80.5,
		"current_work_place_code": source,
		"source_district_code":    source,
		"destination_priorities": []map[string]string{
			{"code": destination, "transfer_type": "permanent"},
		},
	}
	if err := s.tc.Do(ctx, http.MethodPost, "/cases", body); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != http.StatusCreated {
		return fmt.Errorf("create case: status %d: %s", status, s.tc.GetLastResponseBody())
	}
	id, err := s.tc.GetResponseField("data.id")
	if err != nil {
		return err
	}
	s.tc.Save("case", fmt.Sprint(id))
	s.tc.Save("personnel_code", personnel)
	return nil
}

func (s *caseSteps) moveCase(ctx context.Context, to string) error {
	path := "/cases/" + s.tc.Saved("case") + "/status"
	if err := s.tc.Do(ctx, http.MethodPost, path, map[string]any{"to": to, "reason": "e2e"}); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != http.StatusOK {
		return fmt.Errorf("move case to %s: status %d: %s", to, status, s.tc.GetLastResponseBody())
	}
	return nil
}

// caseShouldBeRanked checks the case sits inside its own pool. Earlier runs may
// have left other cases in the pool, so only the bounds are asserted.
func (s *caseSteps) caseShouldBeRanked(ctx context.Context, statuses string) error {
	path := "/cases/" + s.tc.Saved("case") + "/ranking?statuses=" + statuses
	if err := s.tc.Do(ctx, http.MethodGet, path, nil); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != http.StatusOK {
		return fmt.Errorf("ranking: status %d: %s", status, s.tc.GetLastResponseBody())
	}
	gotRank, err := s.tc.GetResponseField("data.rank")
	if err != nil {
		return err
	}
	gotTotal, err := s.tc.GetResponseField("data.total_eligible")
	if err != nil {
		return err
	}
	rank, _ := gotRank.(float64)
	total, _ := gotTotal.(float64)
	if rank < 1 || rank > total {
		return fmt.Errorf("expected a rank within the pool, got %v of %v", gotRank, gotTotal)
	}
	return nil
}

func (s *caseSteps) historyShouldHave(ctx context.Context, n int) error {
	if err := s.tc.Do(ctx, http.MethodGet, "/cases/"+s.tc.Saved("case")+"/history", nil); err != nil {
		return err
	}
	v, err := s.tc.GetResponseField("data.workflow")
	if err != nil {
		return err
	}
	entries, ok := v.([]any)
	if !ok {
		return fmt.Errorf("workflow is not a list: %v", v)
	}
	if len(entries) != n {
		return fmt.Errorf("expected %d workflow entries, got %d", n, len(entries))
	}
	return nil
}
