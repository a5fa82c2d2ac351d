package checkout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validForm() ContactForm {
	return ContactForm{Name: "José O'Neil-Smith", Email: "jose@example.com"}
}

func TestValidateAcceptsValidForm(t *testing.T) {
	v := NewValidator()
	for _, phone := range []string{"", "(555) 123-4567", "1-555-123-4567"} {
		form := validForm()
		form.Phone = phone
		form.Note = strings.Repeat("n", 300)
		assert.Nil(t, v.Validate(form), "phone %q", phone)
	}
}

func TestValidateNameBoundaries(t *testing.T) {
	v := NewValidator()
	for _, name := range []string{"Jo", "O'", "A-", "Zoë", "Jo Ann", strings.Repeat("é", 60)} {
		form := validForm()
		form.Name = name
		assert.Nil(t, v.Validate(form), "name %q", name)
	}
	for _, name := range []string{"J", "J0", "Ana!", strings.Repeat("a", 61)} {
		form := validForm()
		form.Name = name
		assert.Contains(t, v.Validate(form), "name", "name %q", name)
	}
}

func TestValidatePhoneBoundaries(t *testing.T) {
	v := NewValidator()
	cases := []struct {
		phone string
		ok    bool
	}{
		{"8135551234", true},
		{"18135551234", true},
		{"81355512345", false},
		{"813555123", false},
		{"181355512345", false},
	}
	for _, tc := range cases {
		form := validForm()
		form.Phone = tc.phone
		errs := v.Validate(form)
		if tc.ok {
			assert.Nil(t, errs, "phone %q", tc.phone)
		} else {
			assert.Contains(t, errs, "phone", "phone %q", tc.phone)
		}
	}
}

func TestValidateOneErrorPerField(t *testing.T) {
	v := NewValidator()
	cases := []struct {
		name  string
		form  ContactForm
		field string
		want  string
	}{
		{"name required", ContactForm{Email: "a@b.co"}, "name", "This field is required"},
		{"name too short", ContactForm{Name: " A ", Email: "a@b.co"}, "name", "Must be at least 2 characters"},
		{"name too long", ContactForm{Name: strings.Repeat("a", 61), Email: "a@b.co"}, "name", "Must be at most 60 characters"},
		{"name digits", ContactForm{Name: "Jo3", Email: "a@b.co"}, "name", "Use letters, spaces, apostrophes or hyphens only"},
		{"email invalid", ContactForm{Name: "Ana", Email: "not-an-email"}, "email", "Enter a valid email address"},
		{"phone short", ContactForm{Name: "Ana", Email: "a@b.co", Phone: "555-1234"}, "phone", "Enter a 10-digit phone number, or 11 digits starting with 1"},
		{"phone eleven without 1", ContactForm{Name: "Ana", Email: "a@b.co", Phone: "25551234567"}, "phone", "Enter a 10-digit phone number, or 11 digits starting with 1"},
		{"note too long", ContactForm{Name: "Ana", Email: "a@b.co", Note: strings.Repeat("x", 301)}, "note", "Must be at most 300 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := v.Validate(tc.form)
			assert.Len(t, errs, 1)
			assert.Equal(t, tc.want, errs[tc.field])
		})
	}
}

func TestValidateCollectsEveryField(t *testing.T) {
	errs := NewValidator().Validate(ContactForm{Phone: "12"})
	assert.Len(t, errs, 3)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "phone")
	assert.Contains(t, errs.Error(), "email: This field is required")
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "15551234567", DigitsOnly("+1 (555) 123-4567"))
	assert.Equal(t, "", DigitsOnly("call me"))
}
