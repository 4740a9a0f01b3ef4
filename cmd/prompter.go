package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// ErrAborted is returned by a Prompter when the user cancels input.
var ErrAborted = errors.New("input aborted")

// Prompter reads shell input.
type Prompter interface {
	// ReadLine reads one line of visible input.
	ReadLine(prompt string) (string, error)
	// ReadSecret reads input without echo. The caller owns and wipes the
	// returned slice.
	ReadSecret(prompt string) ([]byte, error)
	// AppendHistory records a line for recall.
	AppendHistory(line string)
	Close() error
}

// Terminal is the Prompter for an interactive terminal: liner for lines,
// history and completion, x/term for secrets.
type Terminal struct {
	line        *liner.State
	out         io.Writer
	historyFile string
}

// NewTerminal takes over the terminal. History is loaded from and saved to
// historyFile unless it is empty.
func NewTerminal(historyFile string, complete func(line string) []string) *Terminal {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	if complete != nil {
		line.SetCompleter(complete)
	}

	t := &Terminal{
		line:        line,
		out:         os.Stdout,
		historyFile: historyFile,
	}
	t.loadHistory()
	return t
}

func (t *Terminal) loadHistory() {
	if t.historyFile == "" {
		return
	}
	if f, err := os.Open(t.historyFile); err == nil {
		_, _ = t.line.ReadHistory(f)
		f.Close()
	}
}

// ReadLine implements Prompter.
func (t *Terminal) ReadLine(prompt string) (string, error) {
	s, err := t.line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", ErrAborted
	}
	return s, err
}

// ReadSecret implements Prompter. Without a terminal, input is piped and
// read as a plain line.
func (t *Terminal) ReadSecret(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		s, err := t.ReadLine(prompt)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	}

	fmt.Fprint(t.out, prompt)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(t.out)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

// AppendHistory implements Prompter.
func (t *Terminal) AppendHistory(line string) {
	t.line.AppendHistory(line)
}

// Close saves the history and restores the terminal.
func (t *Terminal) Close() error {
	if t.historyFile != "" {
		f, err := os.OpenFile(t.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err == nil {
			_, _ = t.line.WriteHistory(f)
			f.Close()
		}
	}
	return t.line.Close()
}
