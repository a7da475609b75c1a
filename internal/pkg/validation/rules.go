// Package validation holds the field rules shared by the HTTP binding tags
// and the mutation gateway.
package validation

import (
	"regexp"
)

// Validation rule patterns
var (
	// Login names are letters and digits only
	LoginNamePattern = `^[A-Za-z0-9]+$`

	LoginNameMinLength = 3
	LoginNameMaxLength = 64

	// Password length limits
	PasswordMinLength = 6
	PasswordMaxLength = 128

	// Name validation max length
	NameMaxLength = 100
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	LoginName *regexp.Regexp
}{
	LoginName: regexp.MustCompile(LoginNamePattern),
}

// StringValidation checks one string field
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a new string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    value,
		Required: true,
	}
}

// WithMinLength sets minimum length
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate performs validation
func (v *StringValidation) Validate() bool {
	// Check if required
	if v.Required && v.Value == "" {
		return false
	}

	// Skip other validations for empty optional values
	if !v.Required && v.Value == "" {
		return true
	}

	// Check min length
	if v.MinLen > 0 && len(v.Value) < v.MinLen {
		return false
	}

	// Check max length
	if v.MaxLen > 0 && len(v.Value) > v.MaxLen {
		return false
	}

	// Check pattern
	if v.Pattern != nil && !v.Pattern.MatchString(v.Value) {
		return false
	}

	return true
}

// LoginName validates a login name
func LoginName(s string) bool {
	return NewStringValidation(s).
		WithMinLength(LoginNameMinLength).
		WithMaxLength(LoginNameMaxLength).
		WithPattern(CompiledPatterns.LoginName).
		Validate()
}

// Password validates a new password
func Password(s string) bool {
	return NewStringValidation(s).
		WithMinLength(PasswordMinLength).
		WithMaxLength(PasswordMaxLength).
		Validate()
}

// Name validates a first or last name
func Name(s string) bool {
	return NewStringValidation(s).WithMaxLength(NameMaxLength).Validate()
}
