package services

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	apperrors "namefinder/internal/errors"
)

// newValidator creates a validator that reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()

	// nonempty rejects a missing or empty slice, unlike required which
	// accepts []
	v.RegisterValidation("nonempty", func(fl validator.FieldLevel) bool {
		return fl.Field().Len() > 0
	})

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags of req and collects every failure
func validateStruct(v *validator.Validate, req any) apperrors.ValidationErrors {
	var errs apperrors.ValidationErrors
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add("", err.Error())
		return errs
	}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), formatValidationError(fe))
	}
	return errs
}

// formatValidationError renders a failed tag as the message that follows
// the field name, e.g. "must be `f` or `m`"
func formatValidationError(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required", "nonempty":
		return "not passed"
	case "oneof":
		opts := strings.Fields(param)
		for i, o := range opts {
			opts[i] = "`" + o + "`"
		}
		return "must be " + strings.Join(opts, " or ")
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", param)
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", param)
	case "gt":
		return fmt.Sprintf("must be greater than %s", param)
	case "lt":
		return fmt.Sprintf("must be less than %s", param)
	case "gtefield":
		return fmt.Sprintf("must not be less than `%s`", snakeCase(param))
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// snakeCase turns a Go field name into its JSON name: LengthMin -> length_min
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
