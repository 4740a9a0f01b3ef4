package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/illarion/passman/internal/keyring"
	"github.com/illarion/passman/internal/session"
)

// runDestroy deletes the open vault's file after confirmation, together
// with any copy of its password in the OS keyring.
func (s *Shell) runDestroy(ctx context.Context, args []string) error {
	if err := wantArgs(args, 0, "destroy"); err != nil {
		return err
	}
	if !s.state.Unlocked() {
		return session.ErrNoVaultOpen
	}
	name := s.state.Name()
	// The ID is unreadable once the file is gone.
	vaultID, err := s.pm.VaultID(ctx, name)
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, s.styles.warn.Render(fmt.Sprintf("This permanently deletes vault %s and all its entries.", name)))
	ok, err := s.confirm("Are you sure?")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(s.out, "Nothing changed")
		return nil
	}

	if err := s.pm.Destroy(ctx, s.state); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Vault %s destroyed\n", name)

	if err := keyring.DeletePassword(vaultID); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		s.logger.Warn("keyring cleanup failed", zap.String("vault", name), zap.Error(err))
		fmt.Fprintln(s.out, s.styles.warn.Render("warning: password still in keyring: "+err.Error()))
	}
	return nil
}
