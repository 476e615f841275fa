// Package template renders Jinja-style template text with pongo2.
package template

import (
	"strings"

	"github.com/flosch/pongo2/v6"
)

// SyntaxError reports a template body that failed to parse.
type SyntaxError struct {
	Detail string
}

func (e *SyntaxError) Error() string {
	return "template syntax error: " + e.Detail
}

// RenderError reports a parseable template that failed during evaluation.
type RenderError struct {
	Detail string
}

func (e *RenderError) Error() string {
	return "template render error: " + e.Detail
}

// Render evaluates text against vars. Parse failures return *SyntaxError,
// evaluation failures return *RenderError.
func Render(text string, vars map[string]interface{}) (string, error) {
	tpl, err := pongo2.FromString(text)
	if err != nil {
		return "", &SyntaxError{Detail: err.Error()}
	}

	out, err := tpl.Execute(pongo2.Context(vars))
	if err != nil {
		return "", &RenderError{Detail: err.Error()}
	}
	return out, nil
}

// ValidationResult is the outcome of a non-rendering template check.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate parses the template without evaluating it and flags content that
// looks like XML, where unescaped template markers are a common mistake.
func Validate(text string) ValidationResult {
	result := ValidationResult{Valid: true, Errors: []string{}, Warnings: []string{}}

	if _, err := pongo2.FromString(text); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "<") && strings.Contains(trimmed, ">") {
		result.Warnings = append(result.Warnings, "content looks like XML; ensure template markers are not part of the markup")
	}

	return result
}

// MergeVars layers caller-supplied variables over node defaults. Caller
// values win on key collisions.
func MergeVars(defaults, overrides map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}
