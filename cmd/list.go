package cmd

import (
	"context"
	"fmt"
)

// runList lists the stored vaults, marking the open one.
func (s *Shell) runList(ctx context.Context, args []string) error {
	if err := wantArgs(args, 0, "list"); err != nil {
		return err
	}

	vaults, err := s.pm.List(ctx)
	if err != nil {
		return err
	}
	if len(vaults) == 0 {
		fmt.Fprintln(s.out, "No vaults")
		fmt.Fprintln(s.out, "Use 'vault new <name>' to create one")
		return nil
	}

	fmt.Fprintln(s.out, "Vaults:")
	for _, name := range vaults {
		marker := " "
		if s.state.Unlocked() && s.state.Name() == name {
			marker = "*"
		}
		fmt.Fprintf(s.out, "  %s %s\n", marker, name)
	}
	return nil
}
