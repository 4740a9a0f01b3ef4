package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/illarion/passman/internal/core"
)

// runShow prints entries, masking passwords unless asked.
func (s *Shell) runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	var expose bool
	fs.BoolVar(&expose, "expose", false, "show passwords")
	fs.BoolVar(&expose, "unmask", false, "show passwords")
	args, err := parseFlags(fs, args)
	if err != nil {
		return err
	}

	var filter string
	switch len(args) {
	case 0:
	case 1:
		filter = args[0]
		if err := validateEntryName(filter); err != nil {
			return err
		}
	default:
		return usageError(vaultCommands, "show")
	}

	views, err := s.pm.Show(ctx, s.state, filter, expose)
	if err != nil {
		return err
	}
	defer core.DestroyViews(views)

	if len(views) == 0 {
		fmt.Fprintln(s.out, "Vault is empty")
		fmt.Fprintln(s.out, "Use 'vault add <entry>' to add one")
		return nil
	}
	for _, v := range views {
		s.renderEntry(v)
	}
	return nil
}
