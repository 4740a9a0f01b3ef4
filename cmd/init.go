package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/passman/internal/crypto"
	"github.com/illarion/passman/internal/security"
)

// runNew creates a vault. It does not open it.
func (s *Shell) runNew(ctx context.Context, args []string) error {
	if err := wantArgs(args, 1, "new"); err != nil {
		return err
	}
	name := args[0]
	if err := security.ValidateVaultName(name); err != nil {
		return err
	}

	password, err := s.readPasswordConfirm("Choose master password for vault: ")
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(password)

	if err := s.pm.Create(ctx, name, password); err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Vault %s created\n", name)
	fmt.Fprintf(s.out, "Use 'vault open %s' to unlock it\n", name)
	return nil
}
