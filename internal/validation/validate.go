// Package validation wires go-playground/validator against the
// Movement Orchestrator's request DTO (orchestrator.Request, shared by
// all three movement operations). The teacher repo wires
// the same validator into its HTTP body decoder
// (common/net/http/withBody.go); this repo owns no HTTP layer, so the
// same validator is reused directly at the orchestrator boundary
// instead (spec.md §4.4 step 1).
package validation

import (
	"fmt"
	"reflect"
	"strings"

	enLocale "github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/shopspring/decimal"
	validator "gopkg.in/go-playground/validator.v9"
	enTranslations "gopkg.in/go-playground/validator.v9/translations/en"
)

// Validator wraps a configured validator.Validate with English
// translations, so validation failures carry human-readable messages
// instead of raw struct-tag namespaces.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// New builds a Validator with English translations registered.
func New() (*Validator, error) {
	validate := validator.New()

	// decimal.Decimal is a struct, not a primitive, so "gt=0" needs a
	// custom type func to know how to compare it (shopspring/decimal's
	// own recommended integration with go-playground/validator).
	validate.RegisterCustomTypeFunc(decimalTypeFunc, decimal.Decimal{})

	locale := enLocale.New()
	uni := ut.New(locale, locale)

	translator, _ := uni.GetTranslator("en")

	if err := enTranslations.RegisterDefaultTranslations(validate, translator); err != nil {
		return nil, fmt.Errorf("register validator translations: %w", err)
	}

	return &Validator{validate: validate, translator: translator}, nil
}

// Struct validates s against its `validate:"..."` struct tags. On
// failure it returns a single error joining every field's translated
// message, since the orchestrator only needs to know validation failed
// and why, not structured per-field detail.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		messages = append(messages, fieldErr.Translate(v.translator))
	}

	return fmt.Errorf("%s", strings.Join(messages, "; "))
}

func decimalTypeFunc(field reflect.Value) any {
	if amount, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := amount.Float64()
		return f
	}

	return nil
}
