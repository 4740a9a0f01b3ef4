package cmd

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/illarion/passman/internal/secret"
	"github.com/illarion/passman/internal/security"
)

// runGenerate prints or copies a random password.
func (s *Shell) runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	avoidAmbiguous := fs.Bool("avoid-ambiguous", false, "leave out look-alike characters")
	toClipboard := fs.Bool("copy", false, "copy instead of printing")
	args, err := parseFlags(fs, args)
	if err != nil {
		return err
	}

	length := security.DefaultGenerateLength
	switch len(args) {
	case 0:
	case 1:
		length, err = strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: length must be a number", errUsage)
		}
	default:
		return usageError(topLevel, "generate")
	}

	password, err := security.Generate(length, *avoidAmbiguous)
	if err != nil {
		return err
	}
	sec := secret.New(password)
	defer sec.Destroy()

	if *toClipboard {
		return s.copySecret(sec, "password")
	}
	return sec.Use(func(b []byte) error {
		_, err := fmt.Fprintf(s.out, "%s\n", b)
		return err
	})
}
