package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// StructValidator wraps the validator instance
type StructValidator struct {
	validate *validator.Validate
}

var (
	structValidator *StructValidator
	structOnce      sync.Once
)

// GetStructValidator returns the shared struct validator
func GetStructValidator() *StructValidator {
	structOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("notblank", validateNotBlank)
		structValidator = &StructValidator{validate: v}
	})
	return structValidator
}

// ValidateStruct validates a struct using tags
func (v *StructValidator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// Describe flattens validator errors into a stable one-line message
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	parts := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required", "notblank":
			parts = append(parts, field+" is required")
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", field, e.Param()))
		case "gte":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		case "lte":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", field, e.Param()))
		case "latitude", "longitude":
			parts = append(parts, field+" is out of range")
		case "iso3166_1_alpha2":
			parts = append(parts, field+" is not an ISO 3166-1 alpha-2 code")
		default:
			parts = append(parts, field+" is invalid")
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
