package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "thumbdeck/internal/errors"
)

var configValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Register custom validators
	v.RegisterValidation("ext", hasExtension)
	v.RegisterStructValidation(validateAspect, DeckConfig{})

	// Use YAML keys in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validate(cfg *Config) error {
	err := configValidator.Struct(cfg)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewConfigError("config validation failed", err)
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, formatValidationError(fe))
	}
	return apperrors.NewConfigError("invalid configuration: "+strings.Join(messages, "; "), err).
		WithContext("fields", len(fieldErrs))
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := strings.TrimPrefix(err.Namespace(), "Config.")
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_unless":
		return fmt.Sprintf("%s is required unless %s", field, strings.Replace(param, " ", " is ", 1))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Replace(param, " ", ", ", -1))
	case "ext":
		return fmt.Sprintf("%s must have one of the extensions: %s", field, strings.Replace(param, " ", ", ", -1))
	case "timezone":
		return fmt.Sprintf("%s must be an IANA time zone name", field)
	case "hexcolor":
		return fmt.Sprintf("%s must be a hex color", field)
	case "aspect16x9":
		return fmt.Sprintf("%s must give a 16:9 canvas", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// Custom validators

// hasExtension checks the file extension against a space separated list.
func hasExtension(fl validator.FieldLevel) bool {
	ext := strings.ToLower(filepath.Ext(fl.Field().String()))
	for _, allowed := range strings.Fields(fl.Param()) {
		if ext == allowed {
			return true
		}
	}
	return false
}

// validateAspect rejects canvas sizes that are not 16:9.
func validateAspect(sl validator.StructLevel) {
	deck := sl.Current().Interface().(DeckConfig)
	if deck.CanvasWidth <= 0 || deck.CanvasHeight <= 0 {
		return
	}
	if deck.CanvasWidth*9 != deck.CanvasHeight*16 {
		sl.ReportError(deck.CanvasHeight, "canvas_height", "CanvasHeight", "aspect16x9", "")
	}
}
