// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"errors"
	"fmt"

	businessflow "github.com/billnet/admin-api/business_flow"
	"github.com/go-playground/validator/v10"
)

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "len":
		return err.Field() + " must be exactly " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "alphanum":
		return err.Field() + " must contain only letters and numbers"
	case "numeric":
		return err.Field() + " must contain only numbers"
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

// businessErrorDetails extracts the client-visible details payload from a
// business error chain, if any.
func businessErrorDetails(err error) any {
	var be *businessflow.BusinessError
	if errors.As(err, &be) {
		return be.Details
	}
	return nil
}
