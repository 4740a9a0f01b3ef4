package cmd

import (
	"bytes"
	"context"
	"fmt"

	"github.com/illarion/passman/internal/crypto"
	"github.com/illarion/passman/internal/keyring"
	"github.com/illarion/passman/internal/session"
)

// runPasswd changes the open vault's master password.
func (s *Shell) runPasswd(ctx context.Context, args []string) error {
	if err := wantArgs(args, 0, "passwd"); err != nil {
		return err
	}
	if !s.state.Unlocked() {
		return session.ErrNoVaultOpen
	}
	name := s.state.Name()

	current, err := s.prompter.ReadSecret("Enter current master password: ")
	if err != nil {
		return err
	}
	if err := s.pm.VerifyPassword(s.state, current); err != nil {
		crypto.ClearBytes(current)
		return err
	}
	next, err := s.readPasswordConfirm("Choose new master password: ")
	if err != nil {
		crypto.ClearBytes(current)
		return err
	}

	// Keyring lookup needs only the ID
	vaultID, _ := s.pm.VaultID(ctx, name)
	var keyringCopy []byte
	if vaultID != "" && keyring.HasPassword(vaultID) {
		keyringCopy = bytes.Clone(next)
	}
	defer crypto.ClearBytes(keyringCopy)

	// ChangePassword takes ownership of both passwords.
	if err := s.pm.ChangePassword(ctx, s.state, current, next); err != nil {
		return err
	}

	if keyringCopy != nil {
		if err := keyring.SavePassword(vaultID, keyringCopy); err != nil {
			fmt.Fprintf(s.out, "%s\n", s.styles.warn.Render("warning: keyring not updated: "+err.Error()))
		} else {
			fmt.Fprintln(s.out, "Keyring updated with new password")
		}
	}

	fmt.Fprintln(s.out, "password changed successfully")
	return nil
}
