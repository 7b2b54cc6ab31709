package service

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gregsypek/devflow/internal/apperror"
)

// checkStruct runs validator/v10 over a request payload struct and
// translates failures into an apperror with one message per field.
func checkStruct(v *validator.Validate, payload any) error {
	err := v.Struct(payload)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		// InvalidValidationError: a programming error, not bad input.
		return fmt.Errorf("validating payload: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = fieldMessage(fe)
	}
	return apperror.ValidationFields(fields)
}

// fieldMessage renders one rule violation as a user-facing sentence.
func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "url":
		return field + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
