package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// MissingValueMessage goes in the per-field error list
	MissingValueMessage = "Missing Value"
	// MissingValueSummary goes in the error summary
	MissingValueSummary = "Missing value"
)

// RequiredFields are the contact form fields that must be present and non-empty.
// Only presence is checked; email shape is not validated.
type RequiredFields struct {
	Email   string `form:"email" validate:"required"`
	Name    string `form:"name" validate:"required"`
	Content string `form:"content" validate:"required"`
}

// New returns a validator that reports fields by their form name
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FieldErrors converts the result of validating RequiredFields into the form's
// error map and error summary. A nil err yields empty, non-nil maps.
func FieldErrors(err error) (map[string][]string, map[string]string) {
	errs := map[string][]string{}
	summary := map[string]string{}
	if err == nil {
		return errs, summary
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errs, summary
	}

	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			errs[field] = []string{MissingValueMessage}
			summary[field] = MissingValueSummary
		default:
			errs[field] = append(errs[field], e.Error())
			summary[field] = e.Error()
		}
	}
	return errs, summary
}
