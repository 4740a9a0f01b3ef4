package cmd

import (
	"context"
	"fmt"
)

// runDelete removes every entry with the given name after confirmation.
func (s *Shell) runDelete(ctx context.Context, args []string) error {
	if err := wantArgs(args, 1, "delete"); err != nil {
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
	if !exists {
		return s.pm.DeleteEntry(ctx, s.state, name)
	}

	ok, err := s.confirm(fmt.Sprintf("Delete %s?", name))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(s.out, "Nothing changed")
		return nil
	}

	if err := s.pm.DeleteEntry(ctx, s.state, name); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Entry %s deleted\n", name)
	return nil
}
