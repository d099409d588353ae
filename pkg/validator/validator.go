package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var actionKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// IsActionKey reports whether s is a well-formed tracked action name.
func IsActionKey(s string) bool {
	return actionKeyPattern.MatchString(s)
}

// RegisterCustomValidations adds the project tags to v, typically gin's
// binding engine.
func RegisterCustomValidations(v *validator.Validate) error {
	return v.RegisterValidation("action_key", func(fl validator.FieldLevel) bool {
		return IsActionKey(fl.Field().String())
	})
}

func FormatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, fieldError := range validationErrors {
			messages = append(messages, getFieldErrorMessage(fieldError))
		}
		return strings.Join(messages, "; ")
	}
	return err.Error()
}

func getFieldErrorMessage(fe validator.FieldError) string {
	field := getFieldName(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "action_key":
		return fmt.Sprintf("%s must be lowercase snake_case", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"Action":     "action",
		"ObjectID":   "object_id",
		"ObjectType": "object_type",
		"Metadata":   "metadata",
		"WindowDays": "window_days",
		"Limit":      "limit",
	}

	if name, ok := fieldNames[field]; ok {
		return name
	}
	return field
}
