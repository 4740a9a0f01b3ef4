package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/illarion/passman/internal/config"
	"github.com/illarion/passman/internal/core"
	"github.com/illarion/passman/internal/session"
)

// ErrExit ends the prompt loop.
var ErrExit = errors.New("exit")

const clearScreen = "\033[H\033[2J"

// Shell is the interactive passman prompt. It owns the process's single
// session slot and serializes every command on it.
type Shell struct {
	pm       *core.Passman
	state    *session.State
	prompter Prompter
	out      io.Writer
	styles   styles
	logger   *zap.Logger

	clip      Clipboard
	clipClear time.Duration
	clipMu    sync.Mutex
	clipTimer *time.Timer
	clipSum   [32]byte

	limiter *rate.Limiter

	mu sync.Mutex
}

// ShellOption configures a Shell.
type ShellOption func(*Shell)

// WithClipboard replaces the system clipboard.
func WithClipboard(c Clipboard) ShellOption {
	return func(s *Shell) {
		s.clip = c
	}
}

// WithClipboardClear sets how long copied secrets stay on the clipboard.
// Zero leaves them there.
func WithClipboardClear(d time.Duration) ShellOption {
	return func(s *Shell) {
		s.clipClear = d
	}
}

// WithUnlockLimit allows burst unlock attempts back to back and one more
// per interval after that. A zero interval disables throttling.
func WithUnlockLimit(burst int, interval time.Duration) ShellOption {
	return func(s *Shell) {
		limit := rate.Inf
		if interval > 0 {
			limit = rate.Every(interval)
		}
		s.limiter = rate.NewLimiter(limit, max(burst, 1))
	}
}

// WithShellLogger sets the logger. A nil logger disables logging.
func WithShellLogger(l *zap.Logger) ShellOption {
	return func(s *Shell) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewShell returns a shell reading from p and writing to out.
func NewShell(pm *core.Passman, p Prompter, out io.Writer, opts ...ShellOption) *Shell {
	s := &Shell{
		pm:        pm,
		state:     &session.State{},
		prompter:  p,
		out:       out,
		styles:    newStyles(out),
		logger:    zap.NewNop(),
		clip:      SystemClipboard,
		clipClear: config.DefaultClipboardClear,
	}
	WithUnlockLimit(config.DefaultUnlockAttempts, config.DefaultUnlockInterval)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads and executes commands until exit, end of input or ctx is done.
// The session is closed on return.
func (s *Shell) Run(ctx context.Context) error {
	defer s.Shutdown()

	fmt.Fprintf(s.out, "%s - type 'help' for commands\n", s.styles.title.Render("passman"))
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := s.prompter.ReadLine(s.prompt())
		switch {
		case errors.Is(err, ErrAborted):
			fmt.Fprintln(s.out)
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(s.out)
			return nil
		case err != nil:
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !sensitive(strings.Fields(line)) {
			s.prompter.AppendHistory(line)
		}

		if err := s.Execute(ctx, line); err != nil {
			if errors.Is(err, ErrExit) {
				return nil
			}
			s.HandleError(err)
		}
	}
}

// Execute runs one command line.
func (s *Shell) Execute(ctx context.Context, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	c, ok := lookup(topLevel, args[0])
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownCommand, args[0])
	}
	args = args[1:]

	switch c.name {
	case "help":
		return s.runHelp(args)
	case "clear":
		fmt.Fprint(s.out, clearScreen)
		return nil
	case "exit":
		s.pm.Close(s.state)
		return ErrExit
	case "panic":
		return s.runPanic()
	case "generate":
		return s.runGenerate(args)
	case "analyze":
		return s.runAnalyze(args)
	case "vault":
		return s.runVault(ctx, args)
	}
	return fmt.Errorf("%w: %s", errUnknownCommand, c.name)
}

func (s *Shell) runVault(ctx context.Context, args []string) error {
	if len(args) == 0 {
		s.printCommandHelp("vault")
		return nil
	}
	c, ok := lookup(vaultCommands, args[0])
	if !ok {
		return fmt.Errorf("%w: vault %s", errUnknownCommand, args[0])
	}
	args = args[1:]

	switch c.name {
	case "new":
		return s.runNew(ctx, args)
	case "open":
		return s.runOpen(ctx, args)
	case "close":
		return s.runClose(args)
	case "list":
		return s.runList(ctx, args)
	case "show":
		return s.runShow(ctx, args)
	case "add":
		return s.runAdd(ctx, args)
	case "update":
		return s.runUpdate(ctx, args)
	case "delete":
		return s.runDelete(ctx, args)
	case "copy":
		return s.runCopy(ctx, args)
	case "destroy":
		return s.runDestroy(ctx, args)
	case "search":
		return s.runSearch(ctx, args)
	case "status":
		return s.runStatus(ctx, args)
	case "passwd":
		return s.runPasswd(ctx, args)
	case "compact":
		return s.runCompact(ctx, args)
	case "keyring":
		return s.runKeyring(ctx, args)
	}
	return fmt.Errorf("%w: vault %s", errUnknownCommand, c.name)
}

// Shutdown locks the vault and clears a pending clipboard secret. It may
// be called from a signal handler; if a command holds the shell it leaves
// the session alone and memguard's purge takes care of the key material.
func (s *Shell) Shutdown() {
	if s.mu.TryLock() {
		s.pm.Close(s.state)
		s.mu.Unlock()
	}
	s.clearClipboard(false)
}

func (s *Shell) prompt() string {
	if s.state.Unlocked() {
		return s.state.Name() + "@passman $ "
	}
	return "passman $ "
}
