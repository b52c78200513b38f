package model

import (
	"fmt"
	"net/mail"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.Errors = append(e.Errors, FieldError{Field: field, Message: "is required"})
	}
}

func (e *ValidationError) orNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// ValidateItem checks a collection element for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the item is valid.
func ValidateItem(item Item) error {
	var ve ValidationError
	switch v := item.(type) {
	case Skill:
		ve.required("name", v.Name)
		if v.Level < 0 || v.Level > 100 {
			ve.Errors = append(ve.Errors, FieldError{
				Field:   "level",
				Message: fmt.Sprintf("must be between 0 and 100, got %d", v.Level),
			})
		}
	case Project:
		ve.required("title", v.Title)
	case Experience:
		ve.required("company", v.Company)
		ve.required("position", v.Position)
		if v.Current && v.EndDate != "" {
			ve.Errors = append(ve.Errors, FieldError{Field: "end_date", Message: "must be empty for a current position"})
		}
	case Education:
		ve.required("institution", v.Institution)
		ve.required("degree", v.Degree)
	case Certification:
		ve.required("name", v.Name)
	case Message:
		return ValidateMessage(&v)
	}
	return ve.orNil()
}

// ValidateMessage checks a contact-form submission.
func ValidateMessage(m *Message) error {
	var ve ValidationError
	ve.required("firstName", m.FirstName)
	ve.required("message", m.Message)
	if strings.TrimSpace(m.Email) == "" {
		ve.required("email", m.Email)
	} else if _, err := mail.ParseAddress(m.Email); err != nil {
		ve.Errors = append(ve.Errors, FieldError{Field: "email", Message: "is not a valid address"})
	}
	return ve.orNil()
}
