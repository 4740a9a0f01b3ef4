package cmd

import (
	"context"
	"fmt"
)

// runCompact compacts the open vault's file to reclaim unused space.
func (s *Shell) runCompact(ctx context.Context, args []string) error {
	if err := wantArgs(args, 0, "compact"); err != nil {
		return err
	}

	sizeBefore, sizeAfter, err := s.pm.Compact(ctx, s.state)
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(sizeAfter))
	return nil
}
