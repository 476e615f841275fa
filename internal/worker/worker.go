// Package worker consumes queued execution runs, drives the external test
// runner and writes results back through the execution service.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/leif888/qamanage/internal/domain/models"
	"github.com/leif888/qamanage/internal/domain/services"
	"github.com/leif888/qamanage/internal/pkg/config"
	"github.com/leif888/qamanage/internal/pkg/metrics"
	"github.com/leif888/qamanage/internal/pkg/queue"
	"github.com/leif888/qamanage/internal/runner"
	"github.com/leif888/qamanage/internal/worker/events"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Worker struct {
	cfg          *config.Config
	server       *queue.Server
	runner       *runner.Runner
	executionSvc *services.ExecutionService
	caseSvc      *services.TestCaseService
	publisher    *events.Publisher
	executorID   string
}

func New(
	cfg *config.Config,
	executionSvc *services.ExecutionService,
	caseSvc *services.TestCaseService,
	redisClient *redis.Client,
) *Worker {
	server := queue.NewServer(&cfg.Redis, 10)
	publisher := events.NewPublisher(redisClient)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "worker"
	}

	w := &Worker{
		cfg:          cfg,
		server:       server,
		runner:       runner.New(cfg.Runner),
		executionSvc: executionSvc,
		caseSvc:      caseSvc,
		publisher:    publisher,
		executorID:   fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8]),
	}

	// Register handlers
	server.HandleFunc(queue.TypeExecutionRun, w.handleExecutionRun)

	return w
}

func (w *Worker) Start() error {
	log.Info().Msg("Starting worker...")
	return w.server.Start()
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleExecutionRun(ctx context.Context, task *asynq.Task) error {
	var payload queue.ExecutionRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	logger := log.With().Str("execution_id", payload.ExecutionID.String()).Logger()
	logger.Info().Msg("Processing execution run")

	execution, err := w.executionSvc.Get(ctx, payload.ExecutionID)
	if err != nil {
		logger.Error().Err(err).Msg("Execution not found")
		metrics.QueueTasksProcessed.WithLabelValues(queue.TypeExecutionRun, "error").Inc()
		return err
	}

	claimed, err := w.executionSvc.MarkRunning(ctx, execution.ID, w.executorID)
	if err != nil {
		return err
	}
	if !claimed {
		// Cancelled before pickup, or another worker won the claim.
		logger.Info().Str("status", execution.Status).Msg("Skipping execution, claim lost")
		metrics.QueueTasksProcessed.WithLabelValues(queue.TypeExecutionRun, "skipped").Inc()
		return nil
	}

	projectID := execution.ProjectID
	metrics.TestExecutionsInProgress.WithLabelValues(projectID.String()).Inc()
	defer metrics.TestExecutionsInProgress.WithLabelValues(projectID.String()).Dec()

	if err := w.publisher.ExecutionStarted(ctx, projectID, execution.ID, execution.TotalCases); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish start event")
	}

	features, err := w.collectFeatures(ctx, execution)
	if err != nil {
		return w.failExecution(ctx, execution, fmt.Sprintf("failed to collect features: %v", err))
	}
	if len(features) == 0 {
		return w.failExecution(ctx, execution, "no runnable feature files for selected test cases")
	}

	spec := runner.RunSpec{
		ExecutionID: execution.ID,
		Environment: execution.Environment,
		Browser:     execution.Browser,
		Headless:    execution.Headless,
		Features:    features,
	}
	result, err := w.runner.Run(ctx, spec)
	if err != nil {
		return w.failExecution(ctx, execution, fmt.Sprintf("runner failed to start: %v", err))
	}

	if result.TimedOut {
		return w.failExecution(ctx, execution,
			fmt.Sprintf("runner timed out after %s", w.cfg.Runner.Timeout))
	}

	if result.Report == nil {
		message := "runner produced no readable report"
		if stderr := strings.TrimSpace(result.Stderr); stderr != "" {
			message += ": " + stderr
		}
		return w.failExecution(ctx, execution, message)
	}

	outcome := services.ExecutionOutcome{
		ExitCode:    result.ExitCode,
		Stdout:      result.Stdout,
		Stderr:      result.Stderr,
		Total:       result.Report.Summary.Total,
		Passed:      result.Report.Summary.Passed,
		Failed:      result.Report.Summary.Failed,
		Skipped:     result.Report.Summary.Skipped,
		StepResults: stepResultsFromReport(result.Report),
	}

	updated, err := w.executionSvc.RecordOutcome(ctx, execution.ID, outcome)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to record execution outcome")
		metrics.QueueTasksProcessed.WithLabelValues(queue.TypeExecutionRun, "error").Inc()
		return err
	}

	duration := 0.0
	if updated.Duration != nil {
		duration = float64(*updated.Duration)
	}
	metrics.RecordTestExecution(projectID.String(), updated.Status, duration)
	metrics.RecordScenarios(projectID.String(), updated.PassedCases, updated.FailedCases, updated.SkippedCases)
	metrics.QueueTasksProcessed.WithLabelValues(queue.TypeExecutionRun, updated.Status).Inc()

	switch updated.Status {
	case models.ExecutionStatusCompleted:
		err = w.publisher.ExecutionCompleted(ctx, projectID, execution.ID,
			updated.PassedCases, updated.FailedCases, updated.SkippedCases, updated.PassRate)
	case models.ExecutionStatusCancelled:
		err = w.publisher.ExecutionCancelled(ctx, projectID, execution.ID)
	default:
		message := ""
		if updated.ErrorMessage != nil {
			message = *updated.ErrorMessage
		}
		err = w.publisher.ExecutionFailed(ctx, projectID, execution.ID, message)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to publish completion event")
	}

	logger.Info().
		Str("status", updated.Status).
		Int("passed", updated.PassedCases).
		Int("failed", updated.FailedCases).
		Int("skipped", updated.SkippedCases).
		Msg("Execution run finished")

	return nil
}

// collectFeatures resolves the execution's selected cases into feature files.
// Cases with stored active feature files contribute those; cases with only
// inline gherkin get a synthesized file.
func (w *Worker) collectFeatures(ctx context.Context, execution *models.TestExecution) ([]runner.FeatureFile, error) {
	var features []runner.FeatureFile
	for _, caseID := range execution.TestCaseIDs() {
		tc, err := w.caseSvc.Get(ctx, caseID)
		if err != nil {
			return nil, err
		}
		if tc.IsFolder {
			continue
		}

		files, err := w.caseSvc.ListFiles(ctx, caseID, models.FileTypeFeature)
		if err != nil {
			return nil, err
		}
		if len(files) > 0 {
			for _, file := range files {
				features = append(features, runner.FeatureFile{
					Name:    file.FullName(),
					Content: file.Content,
				})
			}
			continue
		}

		if tc.GherkinContent != nil && strings.TrimSpace(*tc.GherkinContent) != "" {
			features = append(features, runner.FeatureFile{
				Name:    safeFeatureName(tc.Name),
				Content: *tc.GherkinContent,
			})
		}
	}
	return features, nil
}

func safeFeatureName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if cleaned == "" {
		cleaned = "case"
	}
	return cleaned + ".feature"
}

func (w *Worker) failExecution(ctx context.Context, execution *models.TestExecution, message string) error {
	log.Error().
		Str("execution_id", execution.ID.String()).
		Str("error", message).
		Msg("Execution failed before producing results")

	if err := w.executionSvc.Fail(ctx, execution.ID, message); err != nil {
		return err
	}
	metrics.RecordTestExecution(execution.ProjectID.String(), models.ExecutionStatusFailed, 0)
	metrics.QueueTasksProcessed.WithLabelValues(queue.TypeExecutionRun, models.ExecutionStatusFailed).Inc()

	if err := w.publisher.ExecutionFailed(ctx, execution.ProjectID, execution.ID, message); err != nil {
		log.Warn().Err(err).Msg("Failed to publish failure event")
	}
	return nil
}

func normalizeOutcome(outcome string) string {
	switch outcome {
	case "passed", models.StepResultPass:
		return models.StepResultPass
	case "failed", models.StepResultFail:
		return models.StepResultFail
	case "skipped", models.StepResultSkip:
		return models.StepResultSkip
	default:
		return models.StepResultBlocked
	}
}

func stepResultsFromReport(report *runner.Report) []models.TestStepResult {
	var results []models.TestStepResult
	for _, test := range report.Tests {
		for _, step := range test.Steps {
			result := models.TestStepResult{
				StepName:      step.Name,
				Result:        normalizeOutcome(step.Outcome),
				ExecutionTime: step.Duration,
			}
			if step.Keyword != "" {
				keyword := step.Keyword
				result.Keyword = &keyword
			}
			if step.Error != nil && step.Error.Message != "" {
				message := step.Error.Message
				result.Message = &message
			}
			results = append(results, result)
		}
	}
	return results
}
