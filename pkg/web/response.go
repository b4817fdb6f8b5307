// Package web defines common response components for all handlers.
package web

import (
	"github.com/go-playground/validator/v10"
)

// JSONError provides type for explicit json encoded error response.
type JSONError struct {
	Error string `json:"error"`
}

// Error wraps a given err into a json friendly struct.
func Error(err error) JSONError {
	return JSONError{Error: err.Error()}
}

// GetErrorMsg converts binding validation errors into a human readable reason
// for the first failed field.
func GetErrorMsg(ve validator.ValidationErrors) string {
	fe := ve[0]

	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must not exceed " + fe.Param()
	case "email":
		return fe.Field() + " must be a valid email address"
	case "alphanum":
		return fe.Field() + " must contain only letters and numbers"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "nefield":
		return fe.Field() + " must differ from " + fe.Param()
	case "balance":
		return fe.Field() + " must be funding or holding"
	}

	return fe.Field() + " is invalid"
}
