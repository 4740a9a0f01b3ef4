package cmd

import "fmt"

// runClose locks the open vault.
func (s *Shell) runClose(args []string) error {
	if err := wantArgs(args, 0, "close"); err != nil {
		return err
	}
	if !s.state.Unlocked() {
		fmt.Fprintln(s.out, "No vault is open")
		return nil
	}
	name := s.state.Name()
	s.pm.Close(s.state)
	fmt.Fprintf(s.out, "Vault %s closed\n", name)
	return nil
}
