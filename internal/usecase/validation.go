package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field names reported in validation errors.
const (
	FieldOriginalURL     = "original_url"
	FieldValidityMinutes = "validity_minutes"
	FieldCustomShortCode = "custom_short_code"
)

// Validation messages.
const (
	MsgOriginalURLRequired = "Original URL is required."
	MsgInvalidURL          = "Invalid URL format."
	MsgInvalidValidity     = "Validity must be a positive number of minutes."
	MsgValidityTooLong     = "Validity cannot exceed one year (525600 minutes)."
	MsgNotAlphanumeric     = "Custom shortcode must be alphanumeric."
	MsgShortCodeTooLong    = "Custom shortcode is too long."
	MsgShortCodeTaken      = "This shortcode is already taken."
)

// MaxValidityMinutes is one year; it keeps the expiry well inside time.Duration.
const MaxValidityMinutes = 525600

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("validation failed")

// ShortenInput is a request to shorten a URL. ValidityMinutes is nil when
// the caller did not supply one; CustomShortCode is empty when the code
// should be generated.
type ShortenInput struct {
	OriginalURL     string `json:"original_url" validate:"required,url"`
	ValidityMinutes *int   `json:"validity_minutes" validate:"omitempty,gt=0,lte=525600"`
	CustomShortCode string `json:"custom_short_code" validate:"omitempty,alphanum"`
}

// ValidationError maps field names to user-facing messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}

	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

func messageFor(field, tag string) string {
	switch field {
	case FieldOriginalURL:
		if tag == "required" {
			return MsgOriginalURLRequired
		}
		return MsgInvalidURL
	case FieldValidityMinutes:
		if tag == "lte" {
			return MsgValidityTooLong
		}
		return MsgInvalidValidity
	case FieldCustomShortCode:
		return MsgNotAlphanumeric
	default:
		return "invalid value"
	}
}

// Validate checks in against the field rules and the exists predicate.
// It returns nil or a *ValidationError listing every failing field.
func (uc *URLUseCase) Validate(in ShortenInput) error {
	fields := make(map[string]string)

	if err := uc.validate.Struct(in); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return fmt.Errorf("usecase.URLUseCase.Validate: %w", err)
		}
		for _, e := range errs {
			fields[e.Field()] = messageFor(e.Field(), e.Tag())
		}
	}

	if _, bad := fields[FieldCustomShortCode]; !bad && in.CustomShortCode != "" {
		switch {
		case uc.maxCustomCodeLength > 0 && len(in.CustomShortCode) > uc.maxCustomCodeLength:
			fields[FieldCustomShortCode] = MsgShortCodeTooLong
		case uc.urlRepo.Exists(in.CustomShortCode):
			fields[FieldCustomShortCode] = MsgShortCodeTaken
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	return nil
}
