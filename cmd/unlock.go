package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/illarion/passman/internal/crypto"
	"github.com/illarion/passman/internal/keyring"
	"github.com/illarion/passman/internal/security"
	"github.com/illarion/passman/internal/session"
)

// runOpen unlocks a vault, trying a keyring password before prompting.
func (s *Shell) runOpen(ctx context.Context, args []string) error {
	if err := wantArgs(args, 1, "open"); err != nil {
		return err
	}
	name := args[0]
	if err := security.ValidateVaultName(name); err != nil {
		return err
	}
	if s.state.Unlocked() {
		return fmt.Errorf("%w: %s", session.ErrVaultOpen, s.state.Name())
	}

	// The ID is readable without the password; a missing vault fails here.
	vaultID, err := s.pm.VaultID(ctx, name)
	if err != nil {
		return err
	}

	if ok, err := s.openFromKeyring(ctx, name, vaultID); ok || err != nil {
		return err
	}

	if err := s.throttle(ctx); err != nil {
		return err
	}
	password, err := s.prompter.ReadSecret("Enter master password for vault: ")
	if err != nil {
		return err
	}
	if err := security.ValidatePassword(password); err != nil {
		crypto.ClearBytes(password)
		return err
	}

	// Open takes ownership of password.
	if err := s.pm.Open(ctx, s.state, name, password); err != nil {
		return err
	}
	s.printOpened(name)
	return nil
}

// openFromKeyring reports whether the vault was unlocked with a stored
// password. A stored password that no longer works is removed.
func (s *Shell) openFromKeyring(ctx context.Context, name, vaultID string) (bool, error) {
	password, err := keyring.GetPassword(vaultID)
	if err != nil {
		return false, nil
	}

	err = s.pm.Open(ctx, s.state, name, password)
	switch {
	case err == nil:
		fmt.Fprintln(s.out, "Using password from keyring")
		s.printOpened(name)
		return true, nil
	case errors.Is(err, crypto.ErrAuthFailed):
		s.logger.Info("stale keyring password removed", zap.String("vault", name))
		_ = keyring.DeletePassword(vaultID)
		fmt.Fprintln(s.out, s.styles.warn.Render("Keyring password is out of date and was removed"))
		return false, nil
	default:
		return false, err
	}
}

// throttle waits for the unlock rate limiter.
func (s *Shell) throttle(ctx context.Context) error {
	r := s.limiter.Reserve()
	delay := r.Delay()
	if delay == 0 {
		return nil
	}

	fmt.Fprintf(s.out, "Too many unlock attempts, waiting %s\n", delay.Round(time.Second))
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Shell) printOpened(name string) {
	fmt.Fprintf(s.out, "Vault %s opened\n", s.styles.name.Render(name))
}
