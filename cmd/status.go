package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/illarion/passman/internal/crypto"
	"github.com/illarion/passman/internal/keyring"
)

// runStatus shows the open vault's state.
func (s *Shell) runStatus(ctx context.Context, args []string) error {
	if err := wantArgs(args, 0, "status"); err != nil {
		return err
	}
	if !s.state.Unlocked() {
		fmt.Fprintln(s.out, "No vault is open")
		return nil
	}

	st, err := s.pm.Status(ctx, s.state)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Vault:      %s\n", s.styles.name.Render(st.Name))
	fmt.Fprintf(s.out, "Entries:    %d\n", st.Entries)
	if st.Info != nil {
		fmt.Fprintf(s.out, "ID:         %s\n", st.Info.ID)
		fmt.Fprintf(s.out, "Size:       %s\n", formatSize(st.Info.Size))
		fmt.Fprintf(s.out, "Created:    %s\n", st.Info.Created.Local().Format(time.RFC3339))
		fmt.Fprintf(s.out, "Modified:   %s\n", st.Info.Modified.Local().Format(time.RFC3339))
		keyringState := "not stored"
		if keyring.HasPassword(st.Info.ID) {
			keyringState = "stored"
		}
		fmt.Fprintf(s.out, "Keyring:    %s\n", keyringState)
	}
	fmt.Fprintf(s.out, "Encryption: AES-256-GCM, Argon2id (t=%d, m=%d MiB, p=%d)\n",
		crypto.ArgonTime, crypto.ArgonMemory/1024, crypto.ArgonThreads)
	fmt.Fprintf(s.out, "Locks:      after %s idle (at %s)\n", st.TTL, st.ExpiresAt.Local().Format(time.TimeOnly))
	return nil
}
