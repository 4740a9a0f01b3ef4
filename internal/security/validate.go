package security

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	MaxArgLength      = 64
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxSecretLength   = 1024
	MaxUsernameLength = 256
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidName      = errors.New("invalid vault name")
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrEmptyValue       = errors.New("value cannot be empty")
	ErrControlChars     = errors.New("control characters are not allowed")
)

// ValidateArg checks a command argument (entry name, vault name, query)
// against the whitelist: 1 to 64 characters from [A-Za-z0-9_.@-].
func ValidateArg(s string) error {
	if s == "" || len(s) > MaxArgLength {
		return fmt.Errorf("%w: must be 1 to %d characters", ErrInvalidArgument, MaxArgLength)
	}
	for i := 0; i < len(s); i++ {
		if !argChar(s[i]) {
			return fmt.Errorf("%w: %q", ErrInvalidArgument, s)
		}
	}
	return nil
}

// ValidateVaultName checks a vault name. On top of ValidateArg it rejects
// names that would produce hidden files and anything filepath.IsLocal
// refuses (reserved device names on Windows).
func ValidateVaultName(name string) error {
	if err := ValidateArg(name); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidName, name)
	}
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %s: may not start with '.'", ErrInvalidName, name)
	}
	if !filepath.IsLocal(name) {
		return fmt.Errorf("%w: %s", ErrInvalidName, name)
	}
	return nil
}

// ValidatePassword enforces master password bounds.
func ValidatePassword(p []byte) error {
	switch {
	case len(p) == 0:
		return fmt.Errorf("%w: password", ErrEmptyValue)
	case len(p) < MinPasswordLength:
		return fmt.Errorf("%w: minimum is %d", ErrPasswordTooShort, MinPasswordLength)
	case len(p) > MaxPasswordLength:
		return fmt.Errorf("%w: maximum is %d", ErrPasswordTooLong, MaxPasswordLength)
	case bytes.IndexFunc(p, unicode.IsControl) >= 0:
		return ErrControlChars
	}
	return nil
}

// ValidateSecretValue checks a stored entry password. Unlike the master
// password there is no lower bound beyond being non-empty.
func ValidateSecretValue(p []byte) error {
	switch {
	case len(p) == 0:
		return fmt.Errorf("%w: password", ErrEmptyValue)
	case len(p) > MaxSecretLength:
		return fmt.Errorf("%w: maximum is %d", ErrPasswordTooLong, MaxSecretLength)
	case bytes.IndexFunc(p, unicode.IsControl) >= 0:
		return ErrControlChars
	}
	return nil
}

// ValidateUsername allows an empty username.
func ValidateUsername(s string) error {
	if len(s) > MaxUsernameLength {
		return fmt.Errorf("%w: username longer than %d", ErrInvalidArgument, MaxUsernameLength)
	}
	if strings.IndexFunc(s, unicode.IsControl) >= 0 {
		return ErrControlChars
	}
	return nil
}

func argChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '.', c == '@', c == '-':
		return true
	}
	return false
}
