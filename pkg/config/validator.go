package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their YAML names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}

// formatValidationError converts validator errors to "field: message" errors,
// one per failed field.
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	msgs := make([]error, 0, len(validationErrs))
	for _, e := range validationErrs {
		field := e.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		param := e.Param()

		var msg string
		switch e.Tag() {
		case "required":
			msg = "field is required"
		case "min":
			msg = fmt.Sprintf("must have at least %s entries", param)
		case "gte":
			msg = fmt.Sprintf("must be at least %s", param)
		case "lte":
			msg = fmt.Sprintf("must not exceed %s", param)
		case "gtfield":
			msg = fmt.Sprintf("must be greater than %s", strings.ToLower(param))
		case "oneof":
			msg = fmt.Sprintf("must be one of [%s], got %q", param, e.Value())
		case "hostname_port":
			msg = fmt.Sprintf("%q is not a host:port address", e.Value())
		default:
			msg = fmt.Sprintf("validation failed (%s)", e.Tag())
		}
		msgs = append(msgs, fmt.Errorf("%s: %s", field, msg))
	}
	return errors.Join(msgs...)
}
