package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/illarion/passman/internal/keyring"
	"github.com/illarion/passman/internal/session"
)

// runKeyring manages the open vault's password in the OS keyring.
func (s *Shell) runKeyring(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError(vaultCommands, "keyring")
	}
	if !s.state.Unlocked() {
		return session.ErrNoVaultOpen
	}
	vaultID, err := s.pm.VaultID(ctx, s.state.Name())
	if err != nil {
		return err
	}

	switch args[0] {
	case "save":
		return s.keyringSave(ctx, vaultID)
	case "delete":
		return s.keyringDelete(vaultID)
	case "status":
		if keyring.HasPassword(vaultID) {
			fmt.Fprintln(s.out, "Password: stored in keyring")
		} else {
			fmt.Fprintln(s.out, "Password: not stored")
		}
		return nil
	default:
		return usageError(vaultCommands, "keyring")
	}
}

// keyringSave stores the session password. Access renews the session.
func (s *Shell) keyringSave(ctx context.Context, vaultID string) error {
	err := s.pm.WithMasterPassword(ctx, s.state, func(password []byte) error {
		return keyring.SavePassword(vaultID, password)
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Password saved to keyring")
	return nil
}

func (s *Shell) keyringDelete(vaultID string) error {
	if err := keyring.DeletePassword(vaultID); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			fmt.Fprintln(s.out, "No password stored in keyring")
			return nil
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	fmt.Fprintln(s.out, "Password removed from keyring")
	return nil
}
