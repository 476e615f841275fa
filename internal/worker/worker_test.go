package worker

import (
	"testing"

	"github.com/leif888/qamanage/internal/domain/models"
	"github.com/leif888/qamanage/internal/runner"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeOutcome(t *testing.T) {
	assert.Equal(t, models.StepResultPass, normalizeOutcome("passed"))
	assert.Equal(t, models.StepResultFail, normalizeOutcome("failed"))
	assert.Equal(t, models.StepResultSkip, normalizeOutcome("skipped"))
	assert.Equal(t, models.StepResultPass, normalizeOutcome("pass"))
	assert.Equal(t, models.StepResultBlocked, normalizeOutcome("undefined"))
	assert.Equal(t, models.StepResultBlocked, normalizeOutcome(""))
}

func TestSafeFeatureName(t *testing.T) {
	assert.Equal(t, "Book_a_trade.feature", safeFeatureName("Book a trade"))
	assert.Equal(t, "login-page_v2.feature", safeFeatureName("login-page_v2"))
	assert.Equal(t, "case.feature", safeFeatureName(""))
	assert.Equal(t, "______etc.feature", safeFeatureName(`../../etc`))
}

func TestStepResultsFromReport(t *testing.T) {
	report := &runner.Report{
		Tests: []runner.ReportTest{
			{
				Name: "Book a spot trade",
				Steps: []runner.ReportStep{
					{Name: "I open the blotter", Keyword: "Given", Outcome: "passed", Duration: 0.5},
					{Name: "I submit", Keyword: "When", Outcome: "failed", Duration: 1.2,
						Error: &runner.ReportError{Message: "timeout"}},
					{Name: "I see the confirmation", Outcome: "skipped"},
				},
			},
		},
	}

	results := stepResultsFromReport(report)
	assert.Len(t, results, 3)

	assert.Equal(t, models.StepResultPass, results[0].Result)
	assert.Equal(t, "Given", *results[0].Keyword)
	assert.Equal(t, 0.5, results[0].ExecutionTime)
	assert.Nil(t, results[0].Message)

	assert.Equal(t, models.StepResultFail, results[1].Result)
	assert.Equal(t, "timeout", *results[1].Message)

	assert.Equal(t, models.StepResultSkip, results[2].Result)
	assert.Nil(t, results[2].Keyword)
}
