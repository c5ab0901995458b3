package validate

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

var ErrInvalid = errors.New("validation failed")

// FieldError reports the first invalid form field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return ErrInvalid
}

func Field(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

func MaxRunes(value string, limit int) bool {
	return utf8.RuneCountInString(value) <= limit
}

func Email(value string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	return addr.Address == strings.TrimSpace(value) && strings.Contains(addr.Address, "@")
}
