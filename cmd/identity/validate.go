package identity

import (
	"fmt"
	"net/mail"
	"strings"
)

const (
	minPasswordLen  = 3
	minFirstNameLen = 2
	minLastNameLen  = 2
)

// FieldError is a single field-level validation violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field-level violation found in one pass so the
// client can render all of them at once.
type ValidationError struct {
	Fields []FieldError
}

func (e ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "identity: invalid registration: " + strings.Join(parts, "; ")
}

func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// RegistrationInput is the raw shape of a registration request.
type RegistrationInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// ValidateRegistration checks the shape of a registration request.
// It returns nil or a ValidationError; it never touches storage.
func ValidateRegistration(in RegistrationInput) error {
	var fields []FieldError

	// A bare address only: display-name forms like `Jo <jo@x.com>` parse but
	// are not a valid stored email.
	email := strings.TrimSpace(in.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		fields = append(fields, FieldError{Field: "email", Message: "Invalid Email"})
	}
	if len(in.Password) < minPasswordLen {
		fields = append(fields, FieldError{Field: "password", Message: "Password must be at least 3 characters"})
	}
	if len(strings.TrimSpace(in.FirstName)) < minFirstNameLen {
		fields = append(fields, FieldError{Field: "firstName", Message: "First Name must be at least 2 characters"})
	}
	if len(strings.TrimSpace(in.LastName)) < minLastNameLen {
		fields = append(fields, FieldError{Field: "lastName", Message: "Last Name must be at least 2 characters"})
	}

	if len(fields) > 0 {
		return ValidationError{Fields: fields}
	}
	return nil
}
