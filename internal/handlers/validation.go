package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// bindingErrors turns a gin binding failure into field-scoped errors suitable
// for inline display, falling back to a single message for malformed bodies.
func bindingErrors(err error) gin.H {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return gin.H{"error": "malformed request body"}
	}

	fields := map[string][]string{}
	for _, fieldErr := range validationErrs {
		name := strings.ToLower(fieldErr.Field())
		fields[name] = append(fields[name], fieldMessage(fieldErr))
	}
	return gin.H{"error": "validation failed", "fields": fields}
}

func fieldMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fieldErr.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fieldErr.Param())
	case "eqfield":
		return "does not match"
	default:
		return "is invalid"
	}
}
