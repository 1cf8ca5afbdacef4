// validate.go — проверка форм перед отправкой.
package portal

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bigkaa/faculty-portal/internal/notify"
)

// Validator проверяет формы по тегам validate.
// Ошибка проверки — *notify.ValidationError с json-именами полей.
type Validator struct {
	v *validator.Validate
}

// NewValidator создаёт Validator.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Struct проверяет форму.
func (v *Validator) Struct(form any) error {
	err := v.v.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("проверка формы: %w", err)
	}

	ve := &notify.ValidationError{Fields: make([]notify.FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		ve.Fields = append(ve.Fields, notify.FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return ve
}
