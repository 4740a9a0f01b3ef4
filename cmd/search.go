package cmd

import (
	"context"
	"fmt"
)

// runSearch lists entries whose names approximately match a query.
func (s *Shell) runSearch(ctx context.Context, args []string) error {
	if err := wantArgs(args, 1, "search"); err != nil {
		return err
	}
	query := args[0]
	if err := validateEntryName(query); err != nil {
		return err
	}

	results, err := s.pm.Search(ctx, s.state, query)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintf(s.out, "No entries match %q\n", query)
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(s.out, "  %s %s\n", s.styles.name.Render(r.Name), s.styles.label.Render(r.Username))
	}
	return nil
}
