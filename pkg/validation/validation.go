// Package validation builds the request validator shared by services and
// turns its failures into per-field messages.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/noah-isme/turmas-api/pkg/cpf"
)

var (
	once       sync.Once
	translator ut.Translator
)

// Translator returns the English translator used for field messages.
func Translator() ut.Translator {
	once.Do(func() {
		locale := en.New()
		translator, _ = ut.New(locale, locale).GetTranslator("en")
	})
	return translator
}

// New returns a validator that names fields by their json tag, carries
// English messages and knows the cpf tag.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	trans := Translator()
	_ = en_translations.RegisterDefaultTranslations(v, trans)
	_ = cpf.RegisterValidation(v)
	_ = v.RegisterTranslation("cpf", trans,
		func(t ut.Translator) error {
			return t.Add("cpf", "{0} must be a valid CPF", true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T("cpf", fe.Field())
			return msg
		},
	)
	return v
}

// Fields maps each failed field to a readable message. Errors that are not
// validation failures yield nil.
func Fields(err error) map[string]string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	trans := Translator()
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Translate(trans)
	}
	return fields
}
