// Package validation checks inbound payloads and reports field-keyed failures.
package validation

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"unicode/utf8"

	"inkwell/internal/models"

	"github.com/google/uuid"
)

// Validator is implemented by procedure inputs.
type Validator interface {
	Validate() error
}

// Validate runs v's checks when it has any.
func Validate(v any) error {
	if val, ok := v.(Validator); ok {
		return val.Validate()
	}
	return nil
}

// Errors collects one message per field. The first failure recorded for a
// field wins.
type Errors map[string]string

// HasErrors reports whether any field failed.
func (e Errors) HasErrors() bool {
	return len(e) > 0
}

// Add records message for field unless the field already failed.
func (e Errors) Add(field, message string) {
	if _, exists := e[field]; !exists {
		e[field] = message
	}
}

// Err converts the collected failures into a validation AppError, or nil.
func (e Errors) Err() error {
	if !e.HasErrors() {
		return nil
	}
	return models.NewFieldValidationError(e)
}

var slugRegex = regexp.MustCompile(`^[a-z0-9-]+$`)

// Length checks that value has between min and max characters. max <= 0 means unbounded.
func (e Errors) Length(field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	switch {
	case n < min && min == 1:
		e.Add(field, fmt.Sprintf("%s is required", field))
	case n < min:
		e.Add(field, fmt.Sprintf("%s must be at least %d characters", field, min))
	case max > 0 && n > max:
		e.Add(field, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
}

// ID checks that value is a well-formed identifier.
func (e Errors) ID(field, value string) {
	if value == "" {
		e.Add(field, fmt.Sprintf("%s is required", field))
		return
	}
	if _, err := uuid.Parse(value); err != nil {
		e.Add(field, fmt.Sprintf("%s must be a valid id", field))
	}
}

// OptionalID checks value only when present.
func (e Errors) OptionalID(field string, value *string) {
	if value != nil {
		e.ID(field, *value)
	}
}

// IDs checks every element of values.
func (e Errors) IDs(field string, values []string) {
	for i, v := range values {
		e.ID(fmt.Sprintf("%s[%d]", field, i), v)
	}
}

// Email checks that value is a bare RFC 5322 address.
func (e Errors) Email(field, value string) {
	if value == "" {
		e.Add(field, fmt.Sprintf("%s is required", field))
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		e.Add(field, "Invalid email address")
	}
}

// URL checks that value is an absolute http(s) URL.
func (e Errors) URL(field, value string) {
	u, err := url.Parse(value)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		e.Add(field, "Invalid url")
	}
}

// Slug checks length and the lowercase-alphanumeric-and-dash alphabet.
func (e Errors) Slug(field, value string, max int) {
	e.Length(field, value, 1, max)
	if value != "" && !slugRegex.MatchString(value) {
		e.Add(field, "Slug can only contain lowercase letters, numbers and dashes")
	}
}

// Range checks an optional integer; nil means "use the default".
func (e Errors) Range(field string, value *int, min, max int) {
	if value == nil {
		return
	}
	if *value < min || *value > max {
		e.Add(field, fmt.Sprintf("%s must be between %d and %d", field, min, max))
	}
}

// Min checks an optional integer lower bound.
func (e Errors) Min(field string, value *int, min int) {
	if value != nil && *value < min {
		e.Add(field, fmt.Sprintf("%s must be at least %d", field, min))
	}
}

// Role checks value against the known roles.
func (e Errors) Role(field string, value *models.Role) {
	if value != nil && !value.Valid() {
		e.Add(field, "Role must be ADMIN or USER")
	}
}

// Status checks value against the post lifecycle states.
func (e Errors) Status(field string, value *models.PostStatus) {
	if value != nil && !value.Valid() {
		e.Add(field, "Status must be DRAFT, PUBLISHED or ARCHIVED")
	}
}

