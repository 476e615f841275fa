package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/domain/models"
	"github.com/leif888/qamanage/internal/domain/repositories"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newExecutionService(t *testing.T, db *gorm.DB) *ExecutionService {
	t.Helper()
	return NewExecutionService(
		repositories.NewExecutionRepository(db),
		repositories.NewStepResultRepository(db),
		repositories.NewTestCaseRepository(db),
		repositories.NewProjectRepository(db),
	)
}

func seedCase(t *testing.T, db *gorm.DB, projectID uuid.UUID, name, tags string) *models.TestCase {
	t.Helper()
	caseSvc := newTestCaseService(t, db)
	tc, err := caseSvc.Create(context.Background(), CreateTestCaseInput{
		ProjectID: projectID,
		Name:      name,
		Tags:      tags,
	})
	if err != nil {
		t.Fatalf("seed case %q: %v", name, err)
	}
	return tc
}

func TestExecutionCreateWithExplicitCases(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Runs")
	svc := newExecutionService(t, db)
	ctx := context.Background()

	a := seedCase(t, db, project.ID, "Case A", "")
	b := seedCase(t, db, project.ID, "Case B", "")

	execution, err := svc.Create(ctx, CreateExecutionInput{
		ProjectID:   project.ID,
		Name:        "Nightly",
		TestCaseIDs: []uuid.UUID{a.ID, b.ID},
	})
	assert.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusPending, execution.Status)
	assert.Equal(t, 2, execution.TotalCases)
	assert.Equal(t, "test", execution.Environment)
	assert.Equal(t, "chromium", execution.Browser)
	assert.True(t, execution.Headless)

	// the selection is frozen into the stored config
	got, err := svc.Get(ctx, execution.ID)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, got.TestCaseIDs())
}

func TestExecutionCreateUnknownCase(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Runs")
	svc := newExecutionService(t, db)

	a := seedCase(t, db, project.ID, "Case A", "")

	_, err := svc.Create(context.Background(), CreateExecutionInput{
		ProjectID:   project.ID,
		Name:        "Broken selection",
		TestCaseIDs: []uuid.UUID{a.ID, uuid.New()},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExecutionCreateByTags(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Runs")
	svc := newExecutionService(t, db)
	ctx := context.Background()

	smoke := seedCase(t, db, project.ID, "Smoke case", "@smoke,@fast")
	seedCase(t, db, project.ID, "Other case", "@slow")

	execution, err := svc.Create(ctx, CreateExecutionInput{
		ProjectID: project.ID,
		Name:      "Tagged run",
		Tags:      []string{"@smoke"},
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, execution.TotalCases)
	assert.Equal(t, []uuid.UUID{smoke.ID}, execution.TestCaseIDs())
}

func TestExecutionMarkRunningClaim(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Runs")
	svc := newExecutionService(t, db)
	ctx := context.Background()

	a := seedCase(t, db, project.ID, "Case A", "")
	execution, err := svc.Create(ctx, CreateExecutionInput{
		ProjectID:   project.ID,
		Name:        "Claimed",
		TestCaseIDs: []uuid.UUID{a.ID},
	})
	assert.NoError(t, err)

	claimed, err := svc.MarkRunning(ctx, execution.ID, "worker-test")
	assert.NoError(t, err)
	assert.True(t, claimed)

	// second claim loses
	claimed, err = svc.MarkRunning(ctx, execution.ID, "worker-test")
	assert.NoError(t, err)
	assert.False(t, claimed)

	got, err := svc.Get(ctx, execution.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, got.Status)
	assert.NotNil(t, got.StartedAt)
	assert.Equal(t, "worker-test", *got.ExecutedBy)
}

func TestExecutionCancel(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Runs")
	svc := newExecutionService(t, db)
	ctx := context.Background()

	a := seedCase(t, db, project.ID, "Case A", "")
	execution, err := svc.Create(ctx, CreateExecutionInput{
		ProjectID:   project.ID,
		Name:        "Cancelled run",
		TestCaseIDs: []uuid.UUID{a.ID},
	})
	assert.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, execution.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CompletedAt)

	// terminal executions cannot be cancelled again
	_, err = svc.Cancel(ctx, execution.ID)
	assert.ErrorIs(t, err, ErrNotCancellable)

	// a worker claim after cancel loses
	claimed, err := svc.MarkRunning(ctx, execution.ID, "worker-test")
	assert.NoError(t, err)
	assert.False(t, claimed)
}

func TestExecutionRecordOutcome(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Runs")
	svc := newExecutionService(t, db)
	ctx := context.Background()

	a := seedCase(t, db, project.ID, "Case A", "")
	execution, err := svc.Create(ctx, CreateExecutionInput{
		ProjectID:   project.ID,
		Name:        "Finished run",
		TestCaseIDs: []uuid.UUID{a.ID},
	})
	assert.NoError(t, err)

	claimed, err := svc.MarkRunning(ctx, execution.ID, "worker-test")
	assert.NoError(t, err)
	assert.True(t, claimed)

	keyword := "When"
	done, err := svc.RecordOutcome(ctx, execution.ID, ExecutionOutcome{
		ExitCode: 0,
		Passed:   3,
		Failed:   1,
		Skipped:  0,
		Total:    4,
		Stdout:   "4 scenarios",
		StepResults: []models.TestStepResult{
			{StepName: "I log in", Keyword: &keyword, Result: models.StepResultPass},
			{StepName: "I see an error", Keyword: &keyword, Result: models.StepResultFail},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, done.Status)
	assert.Equal(t, 4, done.TotalCases)
	assert.Equal(t, float64(100), done.Progress)
	assert.Equal(t, float64(75), done.PassRate)
	assert.NotNil(t, done.CompletedAt)
	assert.NotNil(t, done.Duration)

	results, err := svc.StepResults(ctx, execution.ID)
	assert.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestExecutionRecordOutcomeAfterCancelKeepsCancelled(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Runs")
	svc := newExecutionService(t, db)
	ctx := context.Background()

	a := seedCase(t, db, project.ID, "Case A", "")
	execution, err := svc.Create(ctx, CreateExecutionInput{
		ProjectID:   project.ID,
		Name:        "Raced run",
		TestCaseIDs: []uuid.UUID{a.ID},
	})
	assert.NoError(t, err)

	claimed, err := svc.MarkRunning(ctx, execution.ID, "worker-test")
	assert.NoError(t, err)
	assert.True(t, claimed)

	_, err = svc.Cancel(ctx, execution.ID)
	assert.NoError(t, err)

	done, err := svc.RecordOutcome(ctx, execution.ID, ExecutionOutcome{ExitCode: 0, Passed: 1, Total: 1})
	assert.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCancelled, done.Status)
}

func TestExecutionAddStepResult(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Runs")
	svc := newExecutionService(t, db)
	ctx := context.Background()

	a := seedCase(t, db, project.ID, "Case A", "")
	execution, err := svc.Create(ctx, CreateExecutionInput{
		ProjectID:   project.ID,
		Name:        "Streaming run",
		TestCaseIDs: []uuid.UUID{a.ID},
	})
	assert.NoError(t, err)

	result, err := svc.AddStepResult(ctx, execution.ID, AddStepResultInput{
		StepName:      "I submit the form",
		Result:        models.StepResultPass,
		ExecutionTime: 0.42,
	})
	assert.NoError(t, err)
	assert.Equal(t, execution.ID, result.ExecutionID)

	_, err = svc.AddStepResult(ctx, uuid.New(), AddStepResultInput{StepName: "orphan", Result: models.StepResultPass})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExecutionSummary(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Runs")
	svc := newExecutionService(t, db)
	ctx := context.Background()

	a := seedCase(t, db, project.ID, "Case A", "")

	first, err := svc.Create(ctx, CreateExecutionInput{ProjectID: project.ID, Name: "First", TestCaseIDs: []uuid.UUID{a.ID}})
	assert.NoError(t, err)
	_, err = svc.MarkRunning(ctx, first.ID, "worker-test")
	assert.NoError(t, err)
	_, err = svc.RecordOutcome(ctx, first.ID, ExecutionOutcome{ExitCode: 0, Passed: 1, Total: 1})
	assert.NoError(t, err)

	second, err := svc.Create(ctx, CreateExecutionInput{ProjectID: project.ID, Name: "Second", TestCaseIDs: []uuid.UUID{a.ID}})
	assert.NoError(t, err)
	_, err = svc.MarkRunning(ctx, second.ID, "worker-test")
	assert.NoError(t, err)
	_, err = svc.RecordOutcome(ctx, second.ID, ExecutionOutcome{ExitCode: 1, Failed: 1, Total: 1})
	assert.NoError(t, err)

	summary, err := svc.Summary(ctx, &project.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, summary.TotalExecutions)
	assert.Equal(t, 1, summary.CompletedExecutions)
	assert.Equal(t, 1, summary.FailedExecutions)
	assert.Equal(t, 2, summary.TotalScenarios)
	assert.Equal(t, 1, summary.PassedScenarios)
	assert.Equal(t, 1, summary.FailedScenarios)
	assert.Equal(t, float64(50), summary.PassRate)
	assert.Len(t, summary.RecentExecutions, 2)
}

func TestExecutionSummaryEmpty(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Runs")
	svc := newExecutionService(t, db)

	summary, err := svc.Summary(context.Background(), &project.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, summary.TotalExecutions)
	assert.Equal(t, float64(0), summary.PassRate)
}

func TestExecutionReapStale(t *testing.T) {
	db := newTestDB(t)
	project := seedProject(t, db, "Runs")
	svc := newExecutionService(t, db)
	ctx := context.Background()

	a := seedCase(t, db, project.ID, "Case A", "")
	execution, err := svc.Create(ctx, CreateExecutionInput{
		ProjectID:   project.ID,
		Name:        "Stuck run",
		TestCaseIDs: []uuid.UUID{a.ID},
	})
	assert.NoError(t, err)
	_, err = svc.MarkRunning(ctx, execution.ID, "worker-test")
	assert.NoError(t, err)

	// a cutoff before the start leaves the run alone
	reaped, err := svc.ReapStale(ctx, time.Now().UTC().Add(-1*time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, 0, reaped)

	// a cutoff after the start fails it
	reaped, err = svc.ReapStale(ctx, time.Now().UTC().Add(1*time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, 1, reaped)

	got, err := svc.Get(ctx, execution.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, got.Status)
	assert.NotNil(t, got.ErrorMessage)
}
