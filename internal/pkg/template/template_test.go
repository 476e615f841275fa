package template

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	out, err := Render("Hello {{ name }}, you have {{ count }} runs", map[string]interface{}{
		"name":  "QA",
		"count": 3,
	})
	assert.NoError(t, err)
	assert.Equal(t, "Hello QA, you have 3 runs", out)
}

func TestRenderMissingVariableIsEmpty(t *testing.T) {
	out, err := Render("value=[{{ missing }}]", map[string]interface{}{})
	assert.NoError(t, err)
	assert.Equal(t, "value=[]", out)
}

func TestRenderConditionals(t *testing.T) {
	text := "{% if headless %}headless{% else %}headed{% endif %}"

	out, err := Render(text, map[string]interface{}{"headless": true})
	assert.NoError(t, err)
	assert.Equal(t, "headless", out)

	out, err = Render(text, map[string]interface{}{"headless": false})
	assert.NoError(t, err)
	assert.Equal(t, "headed", out)
}

func TestRenderSyntaxError(t *testing.T) {
	_, err := Render("{% if open", nil)
	assert.Error(t, err)

	var syntaxErr *SyntaxError
	assert.True(t, errors.As(err, &syntaxErr))
}

func TestRenderEvaluationError(t *testing.T) {
	_, err := Render("{{ value|nosuchfilter }}", map[string]interface{}{"value": 1})
	assert.Error(t, err)

	// pongo2 rejects unknown filters at parse time
	var syntaxErr *SyntaxError
	assert.True(t, errors.As(err, &syntaxErr))
}

func TestValidate(t *testing.T) {
	result := Validate("{{ trade_id }} on {{ trade_date }}")
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateInvalidTemplate(t *testing.T) {
	result := Validate("{% for x in %}")
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Errors)
}

func TestValidateXMLWarning(t *testing.T) {
	result := Validate("<FpML><trade id=\"{{ trade_id }}\"/></FpML>")
	assert.True(t, result.Valid)
	assert.Len(t, result.Warnings, 1)
}

func TestMergeVarsCallerWins(t *testing.T) {
	defaults := map[string]interface{}{"a": 1, "b": 2}
	overrides := map[string]interface{}{"b": 20, "c": 30}

	merged := MergeVars(defaults, overrides)
	assert.Equal(t, 1, merged["a"])
	assert.Equal(t, 20, merged["b"])
	assert.Equal(t, 30, merged["c"])

	// inputs stay untouched
	assert.Equal(t, 2, defaults["b"])
}

func TestMergeVarsNilInputs(t *testing.T) {
	merged := MergeVars(nil, map[string]interface{}{"x": 1})
	assert.Equal(t, 1, merged["x"])

	merged = MergeVars(map[string]interface{}{"y": 2}, nil)
	assert.Equal(t, 2, merged["y"])
}
