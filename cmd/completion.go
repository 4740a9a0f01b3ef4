package cmd

import (
	"context"
	"strings"
)

// Complete returns completions of line for the terminal's tab key: command
// names, vault subcommands, flags and, after open, vault names. Entry names
// are not offered since reading them would renew the session.
func (s *Shell) Complete(line string) []string {
	fields := strings.Fields(line)
	trailing := strings.HasSuffix(line, " ")
	if !trailing && len(fields) > 0 {
		fields = fields[:len(fields)-1]
	}
	prefix := strings.Join(fields, " ")
	if prefix != "" {
		prefix += " "
	}
	word := ""
	if !trailing {
		if i := strings.LastIndexByte(line, ' '); i >= 0 {
			word = line[i+1:]
		} else {
			word = line
		}
	}

	var candidates []string
	switch len(fields) {
	case 0:
		candidates = names(topLevel)
	default:
		top, ok := lookup(topLevel, fields[0])
		if !ok {
			return nil
		}
		switch {
		case top.name == "help" && len(fields) == 1:
			candidates = names(topLevel)
		case top.name == "vault" && len(fields) == 1:
			candidates = names(vaultCommands)
		case top.name == "vault":
			sub, ok := lookup(vaultCommands, fields[1])
			if !ok {
				return nil
			}
			candidates = s.vaultCandidates(sub, len(fields))
		default:
			candidates = top.flags
		}
	}

	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(c, word) {
			out = append(out, prefix+c)
		}
	}
	return out
}

func (s *Shell) vaultCandidates(sub command, n int) []string {
	switch sub.name {
	case "open":
		if n != 2 {
			return nil
		}
		vaults, err := s.pm.List(context.Background())
		if err != nil {
			return nil
		}
		return vaults
	case "keyring":
		if n == 2 {
			return []string{"save", "delete", "status"}
		}
		return nil
	}
	return sub.flags
}

func names(cmds []command) []string {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.name)
	}
	return out
}
