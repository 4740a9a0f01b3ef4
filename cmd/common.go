package cmd

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/illarion/passman/internal/core"
	"github.com/illarion/passman/internal/crypto"
	"github.com/illarion/passman/internal/security"
	"github.com/illarion/passman/internal/session"
	"github.com/illarion/passman/internal/storage"
)

var errPasswordsMismatch = errors.New("passwords do not match")

// HandleError prints err the way every command reports failures.
func (s *Shell) HandleError(err error) {
	errorf := func(format string, a ...any) {
		fmt.Fprintln(s.out, s.styles.err.Render("error: "+fmt.Sprintf(format, a...)))
	}
	hint := func(format string, a ...any) {
		fmt.Fprintf(s.out, format+"\n", a...)
	}

	var notFound *core.EntryNotFoundError
	switch {
	case errors.Is(err, ErrAborted):
		hint("cancelled")
	case errors.Is(err, errUnknownCommand):
		errorf("%s", err)
		hint("Type 'help' for a list of commands")
	case errors.Is(err, errUsage):
		errorf("%s", err)
	case errors.Is(err, session.ErrNoVaultOpen):
		errorf("no vault opened")
		hint("Use 'vault open <name>' first")
	case errors.Is(err, session.ErrSessionExpired):
		errorf("session expired, vault locked")
		hint("Use 'vault open <name>' to unlock it again")
	case errors.Is(err, session.ErrVaultOpen):
		errorf("%s", err)
		hint("Use 'vault close' first")
	case errors.Is(err, crypto.ErrAuthFailed):
		errorf("wrong password or corrupted vault")
	case errors.Is(err, session.ErrPasswordMismatch):
		errorf("current password is incorrect")
	case errors.Is(err, storage.ErrNotFound):
		errorf("%s", err)
		hint("Use 'vault list' to see available vaults")
	case errors.Is(err, storage.ErrAlreadyExists):
		errorf("%s", err)
	case errors.Is(err, storage.ErrLocked):
		errorf("%s", err)
	case errors.As(err, &notFound):
		errorf("%s", err)
	case errors.Is(err, core.ErrNotPersisted):
		errorf("%s", err)
		hint("The change is kept in memory only; fix the problem and retry, or close the vault to discard it")
	default:
		errorf("%s", err)
	}
	s.logger.Debug("command failed", zap.Error(err))
}

// readPassword reads a master password and validates it.
func (s *Shell) readPassword(prompt string) ([]byte, error) {
	password, err := s.prompter.ReadSecret(prompt)
	if err != nil {
		return nil, err
	}
	if err := security.ValidatePassword(password); err != nil {
		crypto.ClearBytes(password)
		return nil, err
	}
	return password, nil
}

// readPasswordConfirm reads a new master password twice and ensures they
// match.
func (s *Shell) readPasswordConfirm(prompt string) ([]byte, error) {
	password1, err := s.readPassword(prompt)
	if err != nil {
		return nil, err
	}

	password2, err := s.prompter.ReadSecret("Confirm master password: ")
	if err != nil {
		crypto.ClearBytes(password1)
		return nil, err
	}
	defer crypto.ClearBytes(password2)

	if !crypto.ConstantTimeCompare(password1, password2) {
		crypto.ClearBytes(password1)
		return nil, errPasswordsMismatch
	}
	return password1, nil
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func (s *Shell) confirm(question string) (bool, error) {
	answer, err := s.prompter.ReadLine(question + " (y/n): ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// wantArgs checks the positional argument count of a vault subcommand.
func wantArgs(args []string, n int, name string) error {
	if len(args) != n {
		return usageError(vaultCommands, name)
	}
	return nil
}

func validateEntryName(name string) error {
	if err := security.ValidateArg(name); err != nil {
		return fmt.Errorf("entry name: %w", err)
	}
	return nil
}

// formatSize formats a file size in human-readable form
func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
