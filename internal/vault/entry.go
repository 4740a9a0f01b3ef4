package vault

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/illarion/passman/internal/secret"
)

var (
	ErrEntryNotFound = errors.New("entry not found")
	ErrInvalidEntry  = errors.New("invalid entry")
	ErrUnknownField  = errors.New("unknown field")
)

// Field selects an updatable part of an entry.
type Field int

const (
	FieldUsername Field = iota
	FieldPassword
)

func (f Field) String() string {
	switch f {
	case FieldUsername:
		return "username"
	case FieldPassword:
		return "password"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// ParseField accepts the shell spellings of a field, with or without a leading dash.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimLeft(s, "-")) {
	case "username", "user", "name":
		return FieldUsername, nil
	case "password", "pass", "pwd":
		return FieldPassword, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownField, s)
	}
}

// Entry is one stored credential.
type Entry struct {
	Name     string
	Username string
	Password *secret.Secret
}

// NewEntry builds an entry. It takes ownership of password.
func NewEntry(name, username string, password []byte) *Entry {
	return &Entry{
		Name:     name,
		Username: username,
		Password: secret.New(password),
	}
}

// Validate checks the structural invariants: a non-empty name and no control
// characters in any field.
func (e *Entry) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidEntry)
	}
	if hasControl(e.Name) {
		return fmt.Errorf("%w: control character in name", ErrInvalidEntry)
	}
	if hasControl(e.Username) {
		return fmt.Errorf("%w: control character in username", ErrInvalidEntry)
	}
	if bytes.IndexFunc(e.Password.Expose(), unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: control character in password", ErrInvalidEntry)
	}
	return nil
}

// Set replaces one field. It takes ownership of value.
func (e *Entry) Set(field Field, value []byte) error {
	switch field {
	case FieldUsername:
		e.Username = string(value)
		secret.New(value).Destroy()
	case FieldPassword:
		old := e.Password
		e.Password = secret.New(value)
		old.Destroy()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}

// ValidateField checks a replacement value before Set is called, so a
// rejected value never touches the entry.
func ValidateField(field Field, value []byte) error {
	switch field {
	case FieldUsername, FieldPassword:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if bytes.IndexFunc(value, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: control character in %s", ErrInvalidEntry, field)
	}
	if field == FieldPassword && len(value) == 0 {
		return fmt.Errorf("%w: empty password", ErrInvalidEntry)
	}
	return nil
}

// Zeroize wipes the password and drops the remaining fields.
func (e *Entry) Zeroize() {
	e.Password.Destroy()
	e.Name = ""
	e.Username = ""
}

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}
