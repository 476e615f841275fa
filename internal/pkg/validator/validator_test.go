package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnumValidators(t *testing.T) {
	assert.NoError(t, ValidateVar("active", "projectstatus"))
	assert.NoError(t, ValidateVar("completed", "projectstatus"))
	assert.Error(t, ValidateVar("archived", "projectstatus"))

	assert.NoError(t, ValidateVar("high", "priority"))
	assert.Error(t, ValidateVar("urgent", "priority"))

	assert.NoError(t, ValidateVar("feature", "filetype"))
	assert.NoError(t, ValidateVar("yaml", "filetype"))
	assert.Error(t, ValidateVar("csv", "filetype"))

	assert.NoError(t, ValidateVar("chromium", "browser"))
	assert.NoError(t, ValidateVar("webkit", "browser"))
	assert.Error(t, ValidateVar("ie11", "browser"))

	assert.NoError(t, ValidateVar("blocked", "stepresult"))
	assert.Error(t, ValidateVar("crashed", "stepresult"))
}

func TestEnumValidatorsAllowEmpty(t *testing.T) {
	// empty means "not provided"; required is a separate tag
	assert.NoError(t, ValidateVar("", "projectstatus"))
	assert.NoError(t, ValidateVar("", "browser"))
}

func TestFormatErrors(t *testing.T) {
	type payload struct {
		Name     string `validate:"required"`
		Priority string `validate:"priority"`
	}

	err := Validate(payload{Priority: "bogus"})
	assert.Error(t, err)

	formatted := FormatErrors(err)
	assert.Len(t, formatted, 2)

	fields := map[string]string{}
	for _, fe := range formatted {
		fields[fe.Field] = fe.Message
	}
	assert.Equal(t, "This field is required", fields["name"])
	assert.Contains(t, fields, "priority")
}
