package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReportData(t *testing.T) {
	data := []byte(`{
		"summary": {"total": 3, "passed": 2, "failed": 1, "skipped": 0},
		"tests": [
			{
				"name": "Book a spot trade",
				"steps": [
					{"name": "I open the blotter", "keyword": "Given", "outcome": "passed", "duration": 0.8},
					{"name": "I submit the ticket", "keyword": "When", "outcome": "failed", "duration": 2.1,
						"error": {"message": "button not found"}}
				]
			}
		]
	}`)

	report, err := ParseReportData(data)
	assert.NoError(t, err)
	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, 2, report.Summary.Passed)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.Len(t, report.Tests, 1)
	assert.Len(t, report.Tests[0].Steps, 2)

	failing := report.Tests[0].Steps[1]
	assert.Equal(t, "failed", failing.Outcome)
	assert.NotNil(t, failing.Error)
	assert.Equal(t, "button not found", failing.Error.Message)
}

func TestParseReportDataInvalid(t *testing.T) {
	_, err := ParseReportData([]byte("not json"))
	assert.Error(t, err)
}

func TestParseReportMissingFile(t *testing.T) {
	_, err := ParseReport("/nonexistent/report.json")
	assert.Error(t, err)
}
