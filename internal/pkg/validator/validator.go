package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Register custom validators
	validate.RegisterValidation("projectstatus", oneOfValues("active", "paused", "completed"))
	validate.RegisterValidation("priority", oneOfValues("high", "medium", "low"))
	validate.RegisterValidation("casestatus", oneOfValues("draft", "pending", "approved", "rejected"))
	validate.RegisterValidation("steptype", oneOfValues("action", "verification", "setup"))
	validate.RegisterValidation("filetype", oneOfValues("feature", "yaml"))
	validate.RegisterValidation("datanodetype", oneOfValues("folder", "template", "data"))
	validate.RegisterValidation("templatenodetype", oneOfValues("folder", "template"))
	validate.RegisterValidation("stepresult", oneOfValues("pass", "fail", "skip", "blocked"))
	validate.RegisterValidation("browser", oneOfValues("chromium", "firefox", "webkit"))
}

func Get() *validator.Validate {
	return validate
}

func Validate(s interface{}) error {
	return validate.Struct(s)
}

func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}

func oneOfValues(values ...string) validator.Func {
	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[v] = struct{}{}
	}
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if value == "" {
			return true
		}
		_, ok := allowed[value]
		return ok
	}
}

// Error formatting
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func FormatErrors(err error) []ValidationError {
	var errors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			errors = append(errors, ValidationError{
				Field:   toSnakeCase(e.Field()),
				Message: formatMessage(e),
			})
		}
	}

	return errors
}

func formatMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too short"
	case "max":
		return "Value is too long"
	case "uuid":
		return "Invalid UUID format"
	case "projectstatus":
		return "Status must be one of: active, paused, completed"
	case "priority":
		return "Priority must be one of: high, medium, low"
	case "casestatus":
		return "Status must be one of: draft, pending, approved, rejected"
	case "steptype":
		return "Type must be one of: action, verification, setup"
	case "filetype":
		return "File type must be one of: feature, yaml"
	case "datanodetype":
		return "Node type must be one of: folder, template, data"
	case "templatenodetype":
		return "Node type must be one of: folder, template"
	case "stepresult":
		return "Result must be one of: pass, fail, skip, blocked"
	case "browser":
		return "Browser must be one of: chromium, firefox, webkit"
	default:
		return "Invalid value"
	}
}

func toSnakeCase(str string) string {
	var result strings.Builder
	for i, r := range str {
		if i > 0 && 'A' <= r && r <= 'Z' {
			result.WriteRune('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}
