package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/illarion/passman/internal/vault"
)

var (
	errUnknownCommand = errors.New("unknown command")
	errUsage          = errors.New("usage")
)

// command describes a shell command for dispatch, help and completion.
type command struct {
	name    string
	aliases []string
	usage   string
	summary string
	flags   []string
}

var topLevel = []command{
	{name: "help", aliases: []string{"h", "?"}, usage: "help [command]", summary: "Show help for a command"},
	{name: "clear", aliases: []string{"cls"}, usage: "clear", summary: "Clear the screen"},
	{name: "exit", aliases: []string{"quit", "q"}, usage: "exit", summary: "Lock the vault and leave"},
	{name: "panic", usage: "panic", summary: "Lock, clear clipboard and screen, and leave"},
	{name: "generate", aliases: []string{"gen"}, usage: "generate [length] [-avoid-ambiguous] [-copy]",
		summary: "Generate a random password", flags: []string{"-avoid-ambiguous", "-copy"}},
	{name: "analyze", aliases: []string{"score"}, usage: "analyze [password] [-paste]",
		summary: "Grade a password's strength", flags: []string{"-paste"}},
	{name: "vault", aliases: []string{"vlt"}, usage: "vault <command> [arguments]", summary: "Work with vaults and entries"},
}

var vaultCommands = []command{
	{name: "new", aliases: []string{"create"}, usage: "vault new <name>", summary: "Create a vault"},
	{name: "open", aliases: []string{"enter", "unlock"}, usage: "vault open <name>", summary: "Unlock a vault"},
	{name: "close", aliases: []string{"exit", "lock"}, usage: "vault close", summary: "Lock the open vault"},
	{name: "list", aliases: []string{"lst", "ls"}, usage: "vault list", summary: "List vaults"},
	{name: "show", aliases: []string{"inspect"}, usage: "vault show [entry] [-expose]",
		summary: "Show entries", flags: []string{"-expose", "-unmask"}},
	{name: "add", usage: "vault add <entry>", summary: "Add an entry"},
	{name: "update", aliases: []string{"up"}, usage: "vault update <entry> -username|-password <value>",
		summary: "Change an entry's username or password", flags: []string{"-username", "-password"}},
	{name: "delete", aliases: []string{"del", "rm"}, usage: "vault delete <entry>", summary: "Delete an entry"},
	{name: "copy", aliases: []string{"cp"}, usage: "vault copy <entry> [-username|-password]",
		summary: "Copy a field to the clipboard", flags: []string{"-username", "-password"}},
	{name: "destroy", aliases: []string{"wipe"}, usage: "vault destroy", summary: "Delete the open vault from disk"},
	{name: "search", aliases: []string{"find"}, usage: "vault search <query>", summary: "Fuzzy search entry names"},
	{name: "status", usage: "vault status", summary: "Show the open vault's status"},
	{name: "passwd", usage: "vault passwd", summary: "Change the master password"},
	{name: "compact", usage: "vault compact", summary: "Reclaim unused space in the vault file"},
	{name: "keyring", usage: "vault keyring save|delete|status", summary: "Manage the password in the OS keyring"},
}

func lookup(cmds []command, name string) (command, bool) {
	name = strings.ToLower(name)
	for _, c := range cmds {
		if c.name == name {
			return c, true
		}
		for _, a := range c.aliases {
			if a == name {
				return c, true
			}
		}
	}
	return command{}, false
}

// parseFlags parses boolean flags that may appear anywhere among args and
// returns the positional arguments in order.
func parseFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	fs.SetOutput(io.Discard)

	var flags, positional []string
	for _, a := range args {
		if strings.HasPrefix(a, "-") && len(a) > 1 {
			flags = append(flags, a)
		} else {
			positional = append(positional, a)
		}
	}
	if err := fs.Parse(flags); err != nil {
		return nil, fmt.Errorf("%w: %s", errUsage, err)
	}
	return positional, nil
}

// fieldFlag parses -username|-password (and their aliases) into a Field.
func fieldFlag(arg string) (vault.Field, error) {
	if !strings.HasPrefix(arg, "-") {
		return 0, fmt.Errorf("%w: expected -username or -password, got %q", errUsage, arg)
	}
	return vault.ParseField(arg)
}

// sensitive reports whether a command line carries a secret and must stay
// out of the history.
func sensitive(args []string) bool {
	if len(args) == 0 {
		return false
	}
	top, ok := lookup(topLevel, args[0])
	if !ok {
		return false
	}
	switch top.name {
	case "analyze":
		for _, a := range args[1:] {
			if !strings.HasPrefix(a, "-") {
				return true
			}
		}
	case "vault":
		if len(args) < 4 {
			return false
		}
		sub, ok := lookup(vaultCommands, args[1])
		if !ok || sub.name != "update" {
			return false
		}
		f, err := vault.ParseField(args[3])
		return err != nil || f == vault.FieldPassword
	}
	return false
}

func usageError(c []command, name string) error {
	cmd, _ := lookup(c, name)
	return fmt.Errorf("%w: %s", errUsage, cmd.usage)
}
