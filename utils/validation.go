package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is the singleton validator instance
	validate *validator.Validate

	// routeSegmentRegex matches a single route segment, including group
	// segments written in parentheses such as "(tabs)"
	routeSegmentRegex = regexp.MustCompile(`^\(?[a-z0-9][a-z0-9_-]*\)?$`)
)

func init() {
	validate = validator.New()

	// Report fields by their wire names so errors match request bodies and
	// policy files.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "yaml"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	_ = validate.RegisterValidation("routesegment", func(fl validator.FieldLevel) bool {
		return IsRouteSegment(fl.Field().String())
	})
}

// IsRouteSegment reports whether s is a valid single route segment
func IsRouteSegment(s string) bool {
	return routeSegmentRegex.MatchString(s)
}

// ValidateStruct validates a struct using go-playground/validator
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewValidationError(validationErrors)
		}
		return err
	}
	return nil
}

// DecodeAndValidate decodes a JSON body into dst and validates it
func DecodeAndValidate(body io.Reader, dst interface{}) error {
	decoder := json.NewDecoder(body)
	if err := decoder.Decode(dst); err != nil {
		return &ValidationError{
			Message: "Invalid JSON body",
			Fields:  map[string]string{"body": err.Error()},
			Err:     err,
		}
	}
	return ValidateStruct(dst)
}

// ValidationError wraps validation errors with structured details
type ValidationError struct {
	Message string
	Fields  map[string]string
	Err     error // read or decode failure behind the error, if any
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, msg := range e.Fields {
		parts = append(parts, msg)
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(parts, "; "))
}

// Unwrap returns the underlying read or decode failure
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError from validator.ValidationErrors
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	fields := make(map[string]string)
	for _, err := range errs {
		field := err.Field()
		tag := err.Tag()

		switch tag {
		case "required":
			fields[field] = fmt.Sprintf("%s is required", field)
		case "url":
			fields[field] = fmt.Sprintf("%s must be a valid URL", field)
		case "startswith":
			fields[field] = fmt.Sprintf("%s must start with %q", field, err.Param())
		case "routesegment":
			fields[field] = fmt.Sprintf("%s must be a single route segment", field)
		case "max":
			fields[field] = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "gte":
			fields[field] = fmt.Sprintf("%s must be greater than or equal to %s", field, err.Param())
		case "lte":
			fields[field] = fmt.Sprintf("%s must be less than or equal to %s", field, err.Param())
		case "unique":
			fields[field] = fmt.Sprintf("%s must not contain duplicates", field)
		default:
			fields[field] = fmt.Sprintf("%s validation failed on '%s' tag", field, tag)
		}
	}

	return &ValidationError{
		Message: "Validation failed",
		Fields:  fields,
	}
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// GetValidationFields extracts field errors from a ValidationError
func GetValidationFields(err error) map[string]string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Fields
	}
	return nil
}
