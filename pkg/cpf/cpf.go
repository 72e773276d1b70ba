// Package cpf validates and masks Brazilian individual taxpayer numbers.
package cpf

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Length is the number of digits in a complete CPF.
const Length = 11

// OnlyDigits strips every non-digit character, preserving order.
func OnlyDigits(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if c := value[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Format masks the digits of value progressively as 000.000.000-00,
// truncating after eleven digits. Partial input yields a partial mask.
func Format(value string) string {
	d := OnlyDigits(value)
	if len(d) > Length {
		d = d[:Length]
	}
	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return d[:3] + "." + d[3:]
	case len(d) <= 9:
		return d[:3] + "." + d[3:6] + "." + d[6:]
	default:
		return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
	}
}

// Validate reports whether value holds a CPF with correct check digits.
// Punctuation is ignored.
func Validate(value string) bool {
	d := OnlyDigits(value)
	if len(d) != Length || repeated(d) {
		return false
	}
	if checkDigit(d[:9]) != int(d[9]-'0') {
		return false
	}
	return checkDigit(d[:10]) == int(d[10]-'0')
}

// checkDigit computes the weighted mod-11 digit over prefix, with weights
// running from len(prefix)+1 down to 2.
func checkDigit(prefix string) int {
	sum := 0
	weight := len(prefix) + 1
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * (weight - i)
	}
	mod := (sum * 10) % 11
	if mod == 10 {
		return 0
	}
	return mod
}

func repeated(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}

// RegisterValidation adds the "cpf" tag to v.
func RegisterValidation(v *validator.Validate) error {
	return v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return Validate(fl.Field().String())
	})
}
