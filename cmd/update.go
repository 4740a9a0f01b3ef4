package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/passman/internal/crypto"
	"github.com/illarion/passman/internal/security"
	"github.com/illarion/passman/internal/vault"
)

// runUpdate replaces one field of an entry after confirmation.
func (s *Shell) runUpdate(ctx context.Context, args []string) error {
	if err := wantArgs(args, 3, "update"); err != nil {
		return err
	}
	name := args[0]
	if err := validateEntryName(name); err != nil {
		return err
	}
	field, err := fieldFlag(args[1])
	if err != nil {
		return err
	}
	value := []byte(args[2])
	defer crypto.ClearBytes(value)
	switch field {
	case vault.FieldUsername:
		err = security.ValidateUsername(args[2])
	case vault.FieldPassword:
		err = security.ValidateSecretValue(value)
	}
	if err != nil {
		return err
	}

	exists, err := s.pm.HasEntry(ctx, s.state, name)
	if err != nil {
		return err
	}
	if !exists {
		// Let the core report it, with its suggestion.
		return s.pm.UpdateEntry(ctx, s.state, name, field, value)
	}

	ok, err := s.confirm(fmt.Sprintf("Change the %s of %s?", field, name))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(s.out, "Nothing changed")
		return nil
	}

	if err := s.pm.UpdateEntry(ctx, s.state, name, field, value); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Entry %s updated\n", name)
	return nil
}
