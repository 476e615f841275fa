package runner

import (
	"encoding/json"
	"fmt"
	"os"
)

// Report is the result document the external runner writes when a run
// finishes (report.json in the workspace).
type Report struct {
	Summary ReportSummary `json:"summary"`
	Tests   []ReportTest  `json:"tests"`
}

type ReportSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type ReportTest struct {
	Name  string       `json:"name"`
	Steps []ReportStep `json:"steps"`
}

type ReportStep struct {
	Name     string       `json:"name"`
	Keyword  string       `json:"keyword"`
	Outcome  string       `json:"outcome"`
	Duration float64      `json:"duration"`
	Error    *ReportError `json:"error,omitempty"`
}

type ReportError struct {
	Message string `json:"message"`
}

// ParseReport reads and decodes a runner report file.
func ParseReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return ParseReportData(data)
}

func ParseReportData(data []byte) (*Report, error) {
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}
