package cmd

import (
	"flag"
	"fmt"

	"github.com/illarion/passman/internal/crypto"
	"github.com/illarion/passman/internal/security"
)

// runAnalyze grades a password given inline, read without echo, or taken
// from the clipboard.
func (s *Shell) runAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	paste := fs.Bool("paste", false, "analyze the clipboard contents")
	args, err := parseFlags(fs, args)
	if err != nil {
		return err
	}

	var password []byte
	switch {
	case *paste && len(args) == 0:
		text, err := s.clip.ReadAll()
		if err != nil {
			return fmt.Errorf("failed to read clipboard: %w", err)
		}
		password = []byte(text)
	case len(args) == 1 && !*paste:
		password = []byte(args[0])
	case len(args) == 0:
		password, err = s.prompter.ReadSecret("Password: ")
		if err != nil {
			return err
		}
	default:
		return usageError(topLevel, "analyze")
	}
	defer crypto.ClearBytes(password)

	if len(password) == 0 {
		return fmt.Errorf("%w: password", security.ErrEmptyValue)
	}

	a := security.Analyze(password)
	style := s.styles.ok
	switch a.Strength {
	case security.StrengthWeak:
		style = s.styles.err
	case security.StrengthFair:
		style = s.styles.warn
	}
	fmt.Fprintf(s.out, "Strength: %s\n", style.Render(a.Strength.String()))
	for _, w := range a.Warnings {
		fmt.Fprintf(s.out, "  - %s\n", w)
	}
	return nil
}
