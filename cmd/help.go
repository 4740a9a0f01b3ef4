package cmd

import (
	"fmt"
	"strings"
)

func (s *Shell) runHelp(args []string) error {
	switch len(args) {
	case 0:
		s.printUsage()
	case 1:
		s.printCommandHelp(args[0])
	default:
		if top, ok := lookup(topLevel, args[0]); ok && top.name == "vault" {
			s.printCommandHelp(args[1])
			return nil
		}
		return usageError(topLevel, "help")
	}
	return nil
}

func (s *Shell) printUsage() {
	fmt.Fprintln(s.out, "passman - local encrypted password vaults")
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Commands:")
	s.printTable(topLevel)
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Vault commands:")
	s.printTable(vaultCommands)
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Examples:")
	fmt.Fprintln(s.out, "  vault new work                     # Create a vault")
	fmt.Fprintln(s.out, "  vault open work                    # Unlock it")
	fmt.Fprintln(s.out, "  vault add email                    # Add an entry")
	fmt.Fprintln(s.out, "  vault copy email -password         # Copy its password")
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Use 'help <command>' for more information about a command.")
}

func (s *Shell) printTable(cmds []command) {
	for _, c := range cmds {
		fmt.Fprintf(s.out, "  %-46s %s\n", c.usage, c.summary)
	}
}

func (s *Shell) printCommandHelp(name string) {
	c, ok := lookup(topLevel, name)
	if !ok {
		c, ok = lookup(vaultCommands, name)
	}
	if !ok {
		fmt.Fprintf(s.out, "No help available for %q\n", name)
		return
	}

	fmt.Fprintln(s.out, s.styles.command.Render(c.usage))
	if len(c.aliases) > 0 {
		fmt.Fprintf(s.out, "Aliases: %s\n", strings.Join(c.aliases, ", "))
	}
	fmt.Fprintln(s.out)
	for _, line := range details[c.name] {
		fmt.Fprintln(s.out, line)
	}
	if c.name == "vault" {
		fmt.Fprintln(s.out)
		s.printTable(vaultCommands)
	}
}

var details = map[string][]string{
	"help":  {"Lists all commands, or describes one."},
	"clear": {"Clears the terminal."},
	"exit":  {"Locks the open vault, wiping it from memory, and leaves passman."},
	"panic": {
		"Locks the open vault, clears the clipboard and the screen, and leaves",
		"passman immediately.",
	},
	"generate": {
		"Generates a random password with at least one lowercase letter,",
		"uppercase letter, digit and symbol. Length defaults to 16 (8 to 128).",
		"",
		"Flags:",
		"  -avoid-ambiguous   Leave out look-alike characters such as 0/O and 1/l",
		"  -copy              Copy to the clipboard instead of printing",
	},
	"analyze": {
		"Grades a password as weak, fair, good or strong. Without an argument",
		"the password is read without echo, which keeps it out of the history.",
		"",
		"Flags:",
		"  -paste   Analyze the clipboard contents",
	},
	"vault": {"Creates, unlocks and edits vaults. A vault locks itself after 10 minutes without use."},
	"new": {
		"Creates an empty vault. Prompts for a master password (8 to 128",
		"characters) twice. The password is not stored anywhere unless you",
		"save it with 'vault keyring save'.",
	},
	"open": {
		"Unlocks a vault. If its password is in the OS keyring it is used",
		"first; a stale keyring password is removed and you are prompted.",
	},
	"close":  {"Locks the open vault and wipes it from memory."},
	"list":   {"Lists the vaults in the data directory. Does not require a password."},
	"show":   {"Shows all entries, or those named entry. Passwords are hidden unless -expose (or -unmask) is given."},
	"add":    {"Adds an entry, prompting for the username and the password. If an entry", "with that name exists you are asked whether to replace it."},
	"update": {"Replaces an entry's username or password after confirmation.", "Lines that carry a password are not added to the history."},
	"delete": {"Deletes every entry with that name after confirmation."},
	"copy":   {"Copies an entry's password (default) or username to the clipboard.", "The clipboard is cleared after a while if it still holds the copy."},
	"destroy": {
		"Deletes the open vault file after confirmation and locks the session.",
		"Its password is removed from the OS keyring too. This cannot be undone.",
	},
	"search":  {"Lists entries whose names approximately match query, closest first."},
	"status":  {"Shows the open vault's name, entry count, file details and when it locks."},
	"passwd":  {"Changes the master password and compacts the vault file.", "Updates the keyring if it holds the old password."},
	"compact": {"Compacts the vault file to reclaim unused space."},
	"keyring": {
		"save     Store the open vault's password in the OS keyring",
		"delete   Remove it",
		"status   Report whether one is stored",
	},
}
