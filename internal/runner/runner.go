// Package runner shells out to an external browser-automation command,
// staging feature files into a throwaway workspace and collecting the
// report it writes back.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/pkg/config"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Runner struct {
	cfg config.RunnerConfig
}

func New(cfg config.RunnerConfig) *Runner {
	return &Runner{cfg: cfg}
}

// FeatureFile is one gherkin document to stage into the workspace.
type FeatureFile struct {
	Name    string
	Content string
}

type RunSpec struct {
	ExecutionID uuid.UUID
	Environment string
	Browser     string
	Headless    bool
	Features    []FeatureFile
}

type RunResult struct {
	ExitCode int
	TimedOut bool
	Stdout   string
	Stderr   string
	Report   *Report
}

type runConfig struct {
	ExecutionID string `yaml:"execution_id"`
	Environment string `yaml:"environment"`
	Browser     string `yaml:"browser"`
	Headless    bool   `yaml:"headless"`
	BaseURL     string `yaml:"base_url"`
	ReportFile  string `yaml:"report_file"`
}

// Run stages the features, invokes the runner command and parses the report
// it leaves behind. The workspace is removed before Run returns; the parsed
// report and captured output are all that survive.
func (r *Runner) Run(ctx context.Context, spec RunSpec) (*RunResult, error) {
	workspace, err := os.MkdirTemp(r.cfg.WorkdirRoot, "qa_test_")
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workspace); err != nil {
			log.Warn().Err(err).Str("workspace", workspace).Msg("Failed to clean up workspace")
		}
	}()

	if err := r.stage(workspace, spec); err != nil {
		return nil, err
	}

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.cfg.Command, r.cfg.Args...)
	cmd.Dir = workspace
	// stdio pipes inherited by runner children would otherwise keep Run
	// blocked long after the deadline kills the runner itself
	cmd.WaitDelay = 5 * time.Second
	cmd.Env = append(os.Environ(),
		"TEST_ENVIRONMENT="+spec.Environment,
		"EXECUTION_ID="+spec.ExecutionID.String(),
		"BROWSER="+spec.Browser,
		"HEADLESS="+strconv.FormatBool(spec.Headless),
		"BASE_URL="+r.cfg.BaseURL,
		"QA_SYSTEM_API="+r.cfg.APIBaseURL,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Info().
		Str("execution_id", spec.ExecutionID.String()).
		Str("command", r.cfg.Command).
		Int("features", len(spec.Features)).
		Msg("Starting test run")

	runErr := cmd.Run()

	result := &RunResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		result.ExitCode = -1
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		}
		log.Warn().
			Str("execution_id", spec.ExecutionID.String()).
			Dur("timeout", r.cfg.Timeout).
			Msg("Run timed out")
		return result, nil
	}
	if runErr != nil {
		exitErr, ok := runErr.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("failed to run command: %w", runErr)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	reportPath := filepath.Join(workspace, r.cfg.ReportFile)
	if report, err := ParseReport(reportPath); err != nil {
		log.Warn().
			Err(err).
			Str("execution_id", spec.ExecutionID.String()).
			Msg("Run produced no readable report")
	} else {
		result.Report = report
	}

	return result, nil
}

// stage lays out the workspace the runner command expects: a features/
// directory with the gherkin files, an empty step_definitions/ directory
// and a run.yaml describing the run.
func (r *Runner) stage(workspace string, spec RunSpec) error {
	featuresDir := filepath.Join(workspace, "features")
	if err := os.MkdirAll(featuresDir, 0o755); err != nil {
		return fmt.Errorf("failed to create features dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(workspace, "step_definitions"), 0o755); err != nil {
		return fmt.Errorf("failed to create step_definitions dir: %w", err)
	}

	for _, feature := range spec.Features {
		path := filepath.Join(featuresDir, feature.Name)
		if err := os.WriteFile(path, []byte(feature.Content), 0o644); err != nil {
			return fmt.Errorf("failed to write feature %s: %w", feature.Name, err)
		}
	}

	cfg := runConfig{
		ExecutionID: spec.ExecutionID.String(),
		Environment: spec.Environment,
		Browser:     spec.Browser,
		Headless:    spec.Headless,
		BaseURL:     r.cfg.BaseURL,
		ReportFile:  r.cfg.ReportFile,
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal run config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(workspace, "run.yaml"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write run config: %w", err)
	}
	return nil
}
