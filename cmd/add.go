package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/passman/internal/crypto"
	"github.com/illarion/passman/internal/security"
)

// runAdd adds an entry. An existing name is replaced only after the user
// agrees, by deleting it before the add.
func (s *Shell) runAdd(ctx context.Context, args []string) error {
	if err := wantArgs(args, 1, "add"); err != nil {
		return err
	}
	name := args[0]
	if err := validateEntryName(name); err != nil {
		return err
	}

	exists, err := s.pm.HasEntry(ctx, s.state, name)
	if err != nil {
		return err
	}
	if exists {
		ok, err := s.confirm(fmt.Sprintf("Entry %s already exists. Overwrite?", name))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(s.out, "Nothing changed")
			return nil
		}
	}

	username, err := s.prompter.ReadLine("Username: ")
	if err != nil {
		return err
	}
	if err := security.ValidateUsername(username); err != nil {
		return err
	}
	password, err := s.prompter.ReadSecret("Password: ")
	if err != nil {
		return err
	}
	if err := security.ValidateSecretValue(password); err != nil {
		crypto.ClearBytes(password)
		return err
	}

	if exists {
		if err := s.pm.DeleteEntry(ctx, s.state, name); err != nil {
			crypto.ClearBytes(password)
			return err
		}
	}
	// AddEntry takes ownership of password.
	if err := s.pm.AddEntry(ctx, s.state, name, username, password); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Entry %s added\n", name)
	return nil
}
