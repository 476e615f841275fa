package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leif888/qamanage/internal/pkg/config"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestRunStagesWorkspaceAndParsesReport(t *testing.T) {
	workdir := t.TempDir()
	capture := filepath.Join(workdir, "seen")

	// the fake runner records its working directory, checks the staged
	// layout and writes a report like the real command would
	script := strings.Join([]string{
		"pwd > " + capture,
		"ls features >> " + capture,
		"test -d step_definitions",
		"test -f run.yaml",
		`echo '{"summary":{"total":1,"passed":1,"failed":0,"skipped":0},"tests":[]}' > report.json`,
	}, " && ")

	r := New(config.RunnerConfig{
		Command:     "sh",
		Args:        []string{"-c", script},
		WorkdirRoot: workdir,
		ReportFile:  "report.json",
		Timeout:     30 * time.Second,
	})

	result, err := r.Run(context.Background(), RunSpec{
		ExecutionID: uuid.New(),
		Environment: "test",
		Browser:     "chromium",
		Headless:    true,
		Features: []FeatureFile{
			{Name: "login.feature", Content: "Feature: login"},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.NotNil(t, result.Report)
	assert.Equal(t, 1, result.Report.Summary.Passed)

	seen, err := os.ReadFile(capture)
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(seen)), "\n")
	assert.Contains(t, lines[0], "qa_test_")
	assert.Contains(t, lines, "login.feature")

	// the workspace is gone once Run returns
	_, err = os.Stat(lines[0])
	assert.True(t, os.IsNotExist(err))
}

func TestRunConfigFile(t *testing.T) {
	workdir := t.TempDir()
	saved := filepath.Join(workdir, "run_copy.yaml")

	r := New(config.RunnerConfig{
		Command:     "sh",
		Args:        []string{"-c", "cp run.yaml " + saved},
		WorkdirRoot: workdir,
		ReportFile:  "report.json",
		BaseURL:     "http://app.local",
	})

	execID := uuid.New()
	_, err := r.Run(context.Background(), RunSpec{
		ExecutionID: execID,
		Environment: "staging",
		Browser:     "firefox",
		Headless:    false,
	})
	assert.NoError(t, err)

	data, err := os.ReadFile(saved)
	assert.NoError(t, err)

	var cfg runConfig
	assert.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, execID.String(), cfg.ExecutionID)
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "firefox", cfg.Browser)
	assert.False(t, cfg.Headless)
	assert.Equal(t, "http://app.local", cfg.BaseURL)
	assert.Equal(t, "report.json", cfg.ReportFile)
}

func TestRunNonZeroExit(t *testing.T) {
	workdir := t.TempDir()

	r := New(config.RunnerConfig{
		Command:     "sh",
		Args:        []string{"-c", "echo scenario failed >&2; exit 1"},
		WorkdirRoot: workdir,
		ReportFile:  "report.json",
	})

	result, err := r.Run(context.Background(), RunSpec{ExecutionID: uuid.New()})
	assert.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Stderr, "scenario failed")
	assert.Nil(t, result.Report)
}

func TestRunMissingCommand(t *testing.T) {
	r := New(config.RunnerConfig{
		Command:     "no-such-command-anywhere",
		WorkdirRoot: t.TempDir(),
		ReportFile:  "report.json",
	})

	_, err := r.Run(context.Background(), RunSpec{ExecutionID: uuid.New()})
	assert.Error(t, err)
}

func TestRunDeadlineMarksTimedOut(t *testing.T) {
	r := New(config.RunnerConfig{
		Command:     "sh",
		Args:        []string{"-c", "sleep 30"},
		WorkdirRoot: t.TempDir(),
		ReportFile:  "report.json",
		Timeout:     200 * time.Millisecond,
	})

	start := time.Now()
	result, err := r.Run(context.Background(), RunSpec{ExecutionID: uuid.New()})
	assert.NoError(t, err)
	assert.True(t, result.TimedOut)
	assert.Nil(t, result.Report)
	assert.Less(t, time.Since(start), 10*time.Second)
}
