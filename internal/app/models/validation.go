package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationErrors collects every field problem found on an entity
type ValidationErrors []FieldError

// FieldError describes one invalid field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + " " + fe.Message
	}
	return strings.Join(parts, "; ")
}

type validator struct {
	errs ValidationErrors
}

func (v *validator) add(field, format string, args ...any) {
	v.errs = append(v.errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.add(field, "is required")
	}
}

func (v *validator) maxLen(field, value string, n int) {
	if utf8.RuneCountInString(value) > n {
		v.add(field, "must be at most %d characters", n)
	}
}

func (v *validator) positive(field string, id int64) {
	if id <= 0 {
		v.add(field, "must reference an existing record")
	}
}

func (v *validator) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}

// AsValidationErrors extracts the field errors carried by err, if any
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
