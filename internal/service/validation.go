package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields by their JSON names so clients can map errors to inputs.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
}

// validateStruct runs the validator tags on v and converts failures into a
// *ValidationError.
func validateStruct(v interface{}) *ValidationError {
	err := validate.Struct(v)
	if err == nil {
		return &ValidationError{}
	}

	result := &ValidationError{}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		result.Add("_", err.Error())
		return result
	}

	for _, e := range validationErrors {
		result.Add(e.Field(), validationMessage(e))
	}
	return result
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "url":
		return "Enter a valid URL"
	case "min":
		return "Value is too short"
	case "max":
		return "Ensure this value has at most " + e.Param() + " characters"
	case "gte":
		return "Value must be greater than or equal to " + e.Param()
	case "lte":
		return "Value must be less than or equal to " + e.Param()
	case "gt":
		return "Value must be greater than " + e.Param()
	case "oneof":
		return "Select a valid choice"
	default:
		return "Invalid value"
	}
}
