package cmd

import "fmt"

// runPanic locks everything down and leaves.
func (s *Shell) runPanic() error {
	s.pm.Close(s.state)
	s.clearClipboard(true)
	fmt.Fprint(s.out, clearScreen)
	return ErrExit
}
