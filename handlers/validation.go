package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/Dosada05/team-roster/services"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// validateForm runs the struct rules of dst and records failures in verr.
func validateForm(dst any, verr *services.ValidationError) {
	err := validate.Struct(dst)
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return
	}
	for _, fe := range fieldErrors {
		verr.Add(fe.Field(), validationMessage(fe))
	}
}

func validationMessage(fe validator.FieldError) string {
	label := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return "The " + label + " field is required."
	case "max":
		return "The " + label + " field must not be greater than " + fe.Param() + " characters."
	case "min":
		return "The " + label + " field must be at least " + fe.Param() + " characters."
	case "email":
		return "The " + label + " field must be a valid email address."
	default:
		return "The " + label + " field is invalid."
	}
}

// formValue returns a trimmed form field; parseRequestForm must run first.
func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}
