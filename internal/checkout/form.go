package checkout

import (
	"strings"
	"unicode"
)

// ContactForm is the customer contact block of a checkout. It lives only in
// memory and is reset after a successful submit.
type ContactForm struct {
	Name           string `json:"name" validate:"required,min=2,max=60,personname"`
	Email          string `json:"email" validate:"required,max=254,email"`
	Phone          string `json:"phone" validate:"phone"`
	Note           string `json:"note" validate:"max=300"`
	MarketingOptIn bool   `json:"marketingOptIn"`
}

// Normalize trims text fields and reduces the phone to its digits.
func (f ContactForm) Normalize() ContactForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = DigitsOnly(f.Phone)
	f.Note = strings.TrimSpace(f.Note)
	return f
}

// DigitsOnly drops every non-digit rune.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validPhone accepts empty, ten digits, or eleven digits with a leading 1.
func validPhone(digits string) bool {
	switch len(digits) {
	case 0, 10:
		return true
	case 11:
		return digits[0] == '1'
	default:
		return false
	}
}

// validPersonName allows letters (accented included), spaces, apostrophes
// and hyphens.
func validPersonName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.Is(unicode.Mn, r):
		case r == ' ', r == '\'', r == '-', r == '’':
		default:
			return false
		}
	}
	return true
}
