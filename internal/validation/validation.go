// Package validation provides input validation utilities
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"wanderlog/internal/models"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func engine() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("storytype", func(fl validator.FieldLevel) bool {
			return models.StoryType(fl.Field().String()).Valid()
		})
		_ = validate.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return IsHTTPURL(fl.Field().String())
		})
		_ = validate.RegisterValidation("mailbox", func(fl validator.FieldLevel) bool {
			return ValidateEmail(fl.Field().String())
		})
	})
	return validate
}

// Struct validates v against its `validate` tags. Violations are returned as a
// VALIDATION_ERROR AppError with one message per offending field.
func Struct(v any) error {
	err := engine().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return models.NewInternalError(err)
	}

	appErr := models.NewValidationError("The given data was invalid.")
	for _, fe := range fieldErrs {
		appErr.AddField(fe.Field(), message(fe))
	}
	if len(fieldErrs) > 0 {
		appErr.Message = message(fieldErrs[0])
	}
	return appErr
}

func message(fe validator.FieldError) string {
	attr := Attribute(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", attr)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", attr, fe.Param())
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", attr, fe.Param())
	case "email", "mailbox":
		return fmt.Sprintf("The %s must be a valid email address.", attr)
	case "storytype", "oneof":
		return fmt.Sprintf("The selected %s is invalid.", attr)
	case "httpurl", "url":
		return fmt.Sprintf("The %s format is invalid.", attr)
	default:
		return fmt.Sprintf("The %s is invalid.", attr)
	}
}

// Attribute turns a field name such as "imageUrl" or "is_published" into
// the human form used in messages ("image url", "is published").
func Attribute(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
		case unicode.IsUpper(r):
			if i > 0 {
				b.WriteRune(' ')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateEmail reports whether email looks like a deliverable address.
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsHTTPURL reports whether raw is an absolute http or https URL with a host.
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
