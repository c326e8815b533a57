package transfers_http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonno85/tech-task/internal/domain"
)

// FieldError describes one rejected request field. Field is the JSON path, e.g. "credit_transfers[1].amount".
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// RequestValidator checks request payloads against their `validate` struct tags.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() (*RequestValidator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		_, err := domain.ParseAmountCents(fl.Field().String())
		return err == nil
	}); err != nil {
		return nil, fmt.Errorf("failed to register 'amount' validation: %w", err)
	}

	return &RequestValidator{validate: v}, nil
}

// Validate returns nil or a *ValidationError listing every rejected field.
func (rv *RequestValidator) Validate(payload any) error {
	err := rv.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("failed to validate request: %w", err)
	}

	fields := make([]FieldError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		field := fieldPath(fe.Namespace())
		fields = append(fields, FieldError{
			Field:   field,
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: formatFieldError(field, fe),
		})
	}
	return &ValidationError{Fields: fields}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return path
}

var fieldErrorFormatters = map[string]func(field string, fe validator.FieldError) string{
	"required": func(field string, _ validator.FieldError) string {
		return fmt.Sprintf("'%s' is required", field)
	},
	"min": func(field string, fe validator.FieldError) string {
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("'%s' must contain at least %s item(s)", field, fe.Param())
		}
		return fmt.Sprintf("'%s' must be at least %s characters long", field, fe.Param())
	},
	"max": func(field string, fe validator.FieldError) string {
		return fmt.Sprintf("'%s' must be at most %s characters long", field, fe.Param())
	},
	"eq": func(field string, fe validator.FieldError) string {
		return fmt.Sprintf("'%s' must be %q", field, fe.Param())
	},
	"amount": func(field string, _ validator.FieldError) string {
		return fmt.Sprintf("'%s' must be a positive decimal amount with at most two decimals", field)
	},
}

func formatFieldError(field string, fe validator.FieldError) string {
	if formatter, ok := fieldErrorFormatters[fe.Tag()]; ok {
		return formatter(field, fe)
	}
	return fmt.Sprintf("'%s' failed on the '%s' rule", field, fe.Tag())
}
