package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/illarion/passman/internal/vault"
)

// runCopy copies an entry's password, or its username, to the clipboard.
func (s *Shell) runCopy(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("copy", flag.ContinueOnError)
	var username, password bool
	for _, n := range []string{"username", "user", "name"} {
		fs.BoolVar(&username, n, false, "copy the username")
	}
	for _, n := range []string{"password", "pass", "pwd"} {
		fs.BoolVar(&password, n, false, "copy the password")
	}
	args, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if err := wantArgs(args, 1, "copy"); err != nil {
		return err
	}
	if username && password {
		return fmt.Errorf("%w: choose one of -username or -password", errUsage)
	}
	name := args[0]
	if err := validateEntryName(name); err != nil {
		return err
	}

	field := vault.FieldPassword
	if username {
		field = vault.FieldUsername
	}
	sec, err := s.pm.Reveal(ctx, s.state, name, field)
	if err != nil {
		return err
	}
	defer sec.Destroy()

	return s.copySecret(sec, field.String())
}
