package common

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxCustomerNameRunes bounds the name printed on the cover and in file names.
const MaxCustomerNameRunes = 120

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Value   string
	Problem string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s (got %q)", e.Field, e.Problem, e.Value)
}

// Rule checks a value and returns a problem description, or "" when it passes.
type Rule func(value string) string

func Required(v string) string {
	if strings.TrimSpace(v) == "" {
		return "is required"
	}
	return ""
}

func MaxLength(n int) Rule {
	return func(v string) string {
		if utf8.RuneCountInString(v) > n {
			return fmt.Sprintf("must be at most %d characters", n)
		}
		return ""
	}
}

func OneOf(allowed ...string) Rule {
	return func(v string) string {
		for _, a := range allowed {
			if v == a {
				return ""
			}
		}
		return "must be one of " + strings.Join(allowed, ", ")
	}
}

// NoPathSeparators keeps a value usable verbatim as part of a file name.
func NoPathSeparators(v string) string {
	if strings.ContainsAny(v, "/\\\x00") {
		return "must not contain path separators"
	}
	return ""
}

// Validator collects failures across fields; the first failing rule of a
// field stops the remaining rules for it.
type Validator struct {
	problems []FieldError
}

func NewValidator() *Validator { return &Validator{} }

func (v *Validator) Field(name, value string, rules ...Rule) *Validator {
	for _, rule := range rules {
		if p := rule(value); p != "" {
			v.problems = append(v.problems, FieldError{Field: name, Value: value, Problem: p})
			break
		}
	}
	return v
}

func (v *Validator) HasErrors() bool { return len(v.problems) > 0 }

func (v *Validator) Problems() []FieldError { return v.problems }

func (v *Validator) ErrorMessage() string {
	msgs := make([]string, len(v.problems))
	for i, p := range v.problems {
		msgs[i] = p.Error()
	}
	return strings.Join(msgs, "; ")
}

// Error wraps the collected failures in ErrValidation, or returns nil.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrValidation, v.ErrorMessage())
}

func ValidateCustomerName(name string) error {
	return NewValidator().
		Field("customer_name", name, Required, MaxLength(MaxCustomerNameRunes), NoPathSeparators).
		Error()
}
