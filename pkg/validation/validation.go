package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details flattens the errors for AppError details.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

// New returns a validator that reports fields by their json names.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Struct validates s and translates validator errors into ValidationErrors.
func Struct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return translate(validationErrs)
	}
	return err
}

func translate(errs validator.ValidationErrors) ValidationErrors {
	var out ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", err.Field())
		case "uuid4", "uuid":
			message = fmt.Sprintf("%s must be a valid UUID", err.Field())
		}

		out = append(out, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return out
}
