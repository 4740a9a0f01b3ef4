package cmd

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/illarion/passman/internal/core"
	"github.com/illarion/passman/internal/crypto"
	"github.com/illarion/passman/internal/keyring"
	"github.com/illarion/passman/internal/security"
	"github.com/illarion/passman/internal/session"
	"github.com/illarion/passman/internal/storage"
)

// script is a Prompter that replays canned answers.
type script struct {
	lines   []string
	secrets []string
	history []string
}

func (p *script) ReadLine(string) (string, error) {
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

func (p *script) ReadSecret(string) ([]byte, error) {
	if len(p.secrets) == 0 {
		return nil, io.EOF
	}
	s := p.secrets[0]
	p.secrets = p.secrets[1:]
	return []byte(s), nil
}

func (p *script) AppendHistory(line string) { p.history = append(p.history, line) }
func (p *script) Close() error              { return nil }

type fakeClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *fakeClipboard) ReadAll() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, nil
}

func (c *fakeClipboard) WriteAll(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

func (c *fakeClipboard) get() string {
	text, _ := c.ReadAll()
	return text
}

type testShell struct {
	*Shell
	in    *script
	out   *bytes.Buffer
	clip  *fakeClipboard
	store *storage.Store
	now   time.Time
}

func newTestShell(t *testing.T, opts ...ShellOption) *testShell {
	t.Helper()
	gokeyring.MockInit()

	root, err := security.OpenRoot(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { root.Close() })

	ts := &testShell{
		in:    &script{},
		out:   &bytes.Buffer{},
		clip:  &fakeClipboard{},
		store: storage.New(root),
		now:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	mgr := session.NewManager(ts.store, session.WithClock(func() time.Time { return ts.now }))
	pm := core.New(mgr, ts.store)

	opts = append([]ShellOption{
		WithClipboard(ts.clip),
		WithUnlockLimit(100, 0),
	}, opts...)
	ts.Shell = NewShell(pm, ts.in, ts.out, opts...)
	t.Cleanup(ts.Shutdown)
	return ts
}

// exec queues answers, runs line and returns what it printed.
func (ts *testShell) exec(t *testing.T, line string, answers ...string) (string, error) {
	t.Helper()
	ts.out.Reset()
	ts.in.lines = append(ts.in.lines, answers...)
	err := ts.Execute(context.Background(), line)
	return ts.out.String(), err
}

func (ts *testShell) secrets(s ...string) {
	ts.in.secrets = append(ts.in.secrets, s...)
}

func (ts *testShell) createAndOpen(t *testing.T, name string) {
	t.Helper()
	ts.secrets("Correct1!", "Correct1!", "Correct1!")
	_, err := ts.exec(t, "vault new "+name)
	require.NoError(t, err)
	_, err = ts.exec(t, "vault open "+name)
	require.NoError(t, err)
	require.True(t, ts.state.Unlocked())
}

func (ts *testShell) addEntry(t *testing.T, name, username, password string) {
	t.Helper()
	ts.secrets(password)
	_, err := ts.exec(t, "vault add "+name, username)
	require.NoError(t, err)
}

func TestVaultLifecycle(t *testing.T) {
	ts := newTestShell(t)
	ts.createAndOpen(t, "work")
	assert.Equal(t, "work@passman $ ", ts.prompt())

	ts.addEntry(t, "email", "me", "hunter2")

	out, err := ts.exec(t, "vault show email -expose")
	require.NoError(t, err)
	assert.Contains(t, out, "username: me")
	assert.Contains(t, out, "password: hunter2")

	out, err = ts.exec(t, "vault show")
	require.NoError(t, err)
	assert.Contains(t, out, core.HiddenPassword)
	assert.NotContains(t, out, "hunter2")

	_, err = ts.exec(t, "vault update email -password hunter3", "y")
	require.NoError(t, err)
	out, err = ts.exec(t, "vault show email -unmask")
	require.NoError(t, err)
	assert.Contains(t, out, "password: hunter3")

	_, err = ts.exec(t, "vault delete email", "yes")
	require.NoError(t, err)
	_, err = ts.exec(t, "vault show email")
	var notFound *core.EntryNotFoundError
	assert.ErrorAs(t, err, &notFound)

	out, err = ts.exec(t, "vault close")
	require.NoError(t, err)
	assert.Contains(t, out, "Vault work closed")
	assert.False(t, ts.state.Unlocked())
	assert.Equal(t, "passman $ ", ts.prompt())
}

func TestNewVault(t *testing.T) {
	ts := newTestShell(t)

	ts.secrets("Correct1!", "Different1!")
	_, err := ts.exec(t, "vault new work")
	assert.ErrorIs(t, err, errPasswordsMismatch)

	ts.secrets("short")
	_, err = ts.exec(t, "vault new work")
	assert.ErrorIs(t, err, security.ErrPasswordTooShort)

	_, err = ts.exec(t, "vault new .hidden")
	assert.ErrorIs(t, err, security.ErrInvalidName)

	_, err = ts.exec(t, "vault new")
	assert.ErrorIs(t, err, errUsage)

	ts.secrets("Correct1!", "Correct1!")
	out, err := ts.exec(t, "vault create work")
	require.NoError(t, err)
	assert.Contains(t, out, "Vault work created")
	assert.False(t, ts.state.Unlocked())

	ts.secrets("Correct1!", "Correct1!")
	_, err = ts.exec(t, "vault new work")
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	out, err = ts.exec(t, "vault list")
	require.NoError(t, err)
	assert.Contains(t, out, "work")
}

func TestOpenFailures(t *testing.T) {
	ts := newTestShell(t)

	_, err := ts.exec(t, "vault open nowhere")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	ts.secrets("Correct1!", "Correct1!")
	_, err = ts.exec(t, "vault new work")
	require.NoError(t, err)

	ts.secrets("Wrong123!")
	_, err = ts.exec(t, "vault open work")
	assert.ErrorIs(t, err, crypto.ErrAuthFailed)
	assert.False(t, ts.state.Unlocked())

	ts.secrets("Correct1!")
	_, err = ts.exec(t, "vault unlock work")
	require.NoError(t, err)

	_, err = ts.exec(t, "vault open work")
	assert.ErrorIs(t, err, session.ErrVaultOpen)
}

func TestUnlockThrottle(t *testing.T) {
	ts := newTestShell(t, WithUnlockLimit(1, time.Hour))
	ts.secrets("Correct1!", "Correct1!")
	_, err := ts.exec(t, "vault new work")
	require.NoError(t, err)

	ts.secrets("Wrong123!")
	_, err = ts.exec(t, "vault open work")
	assert.ErrorIs(t, err, crypto.ErrAuthFailed)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	ts.out.Reset()
	err = ts.Execute(ctx, "vault open work")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, ts.out.String(), "Too many unlock attempts")
}

func TestRequiresOpenVault(t *testing.T) {
	ts := newTestShell(t)

	for _, line := range []string{
		"vault show",
		"vault add email",
		"vault copy email",
		"vault search mail",
		"vault destroy",
		"vault passwd",
		"vault compact",
		"vault keyring status",
	} {
		_, err := ts.exec(t, line)
		assert.ErrorIs(t, err, session.ErrNoVaultOpen, line)
	}
}

func TestAddDuplicate(t *testing.T) {
	ts := newTestShell(t)
	ts.createAndOpen(t, "work")
	ts.addEntry(t, "email", "me", "hunter2")

	out, err := ts.exec(t, "vault add email", "n")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing changed")

	ts.secrets("hunter9")
	_, err = ts.exec(t, "vault add email", "y", "other")
	require.NoError(t, err)

	out, err = ts.exec(t, "vault show -expose")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "email"))
	assert.Contains(t, out, "username: other")
	assert.Contains(t, out, "password: hunter9")
}

func TestAddValidation(t *testing.T) {
	ts := newTestShell(t)
	ts.createAndOpen(t, "work")

	_, err := ts.exec(t, "vault add bad/name")
	assert.ErrorIs(t, err, security.ErrInvalidArgument)

	ts.secrets("")
	_, err = ts.exec(t, "vault add email", "me")
	assert.ErrorIs(t, err, security.ErrEmptyValue)

	out, err := ts.exec(t, "vault show")
	require.NoError(t, err)
	assert.Contains(t, out, "Vault is empty")
}

func TestUpdateAndDeleteDeclined(t *testing.T) {
	ts := newTestShell(t)
	ts.createAndOpen(t, "work")
	ts.addEntry(t, "email", "me", "hunter2")

	out, err := ts.exec(t, "vault update email -password hunter3", "n")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing changed")

	_, err = ts.exec(t, "vault delete email", "no")
	require.NoError(t, err)

	_, err = ts.exec(t, "vault up email -user someone", "y")
	require.NoError(t, err)

	out, err = ts.exec(t, "vault show email -expose")
	require.NoError(t, err)
	assert.Contains(t, out, "username: someone")
	assert.Contains(t, out, "password: hunter2")

	_, err = ts.exec(t, "vault update email -colour blue")
	assert.Error(t, err)

	_, err = ts.exec(t, "vault update emial -password x")
	var notFound *core.EntryNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "email", notFound.Suggestion)

	_, err = ts.exec(t, "vault del nothing")
	assert.ErrorAs(t, err, &notFound)
}

func TestCopy(t *testing.T) {
	ts := newTestShell(t, WithClipboardClear(0))
	ts.createAndOpen(t, "work")
	ts.addEntry(t, "email", "me", "hunter2")

	out, err := ts.exec(t, "vault copy email")
	require.NoError(t, err)
	assert.Contains(t, out, "Copied password to clipboard")
	assert.Equal(t, "hunter2", ts.clip.get())

	_, err = ts.exec(t, "vault cp email -username")
	require.NoError(t, err)
	assert.Equal(t, "me", ts.clip.get())

	_, err = ts.exec(t, "vault copy email -username -password")
	assert.ErrorIs(t, err, errUsage)
}

func TestCopyClearsClipboard(t *testing.T) {
	ts := newTestShell(t, WithClipboardClear(20*time.Millisecond))
	ts.createAndOpen(t, "work")
	ts.addEntry(t, "email", "me", "hunter2")

	_, err := ts.exec(t, "vault copy email")
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return ts.clip.get() == "" }, time.Second, 5*time.Millisecond)
}

func TestCopyLeavesForeignClipboard(t *testing.T) {
	ts := newTestShell(t, WithClipboardClear(20*time.Millisecond))
	ts.createAndOpen(t, "work")
	ts.addEntry(t, "email", "me", "hunter2")

	_, err := ts.exec(t, "vault copy email")
	require.NoError(t, err)
	require.NoError(t, ts.clip.WriteAll("copied elsewhere"))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, "copied elsewhere", ts.clip.get())
}

func TestDestroy(t *testing.T) {
	ts := newTestShell(t)
	ts.createAndOpen(t, "temp")

	out, err := ts.exec(t, "vault destroy", "n")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing changed")
	assert.True(t, ts.state.Unlocked())

	_, err = ts.exec(t, "vault wipe", "y")
	require.NoError(t, err)
	assert.False(t, ts.state.Unlocked())

	exists, err := ts.store.Exists("temp")
	require.NoError(t, err)
	assert.False(t, exists)

	out, err = ts.exec(t, "vault list")
	require.NoError(t, err)
	assert.NotContains(t, out, "temp")

	_, err = ts.exec(t, "vault open temp")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDestroyForgetsKeyringPassword(t *testing.T) {
	ts := newTestShell(t)
	ts.createAndOpen(t, "temp")
	id, err := ts.store.VaultID("temp")
	require.NoError(t, err)

	_, err = ts.exec(t, "vault keyring save")
	require.NoError(t, err)
	require.True(t, keyring.HasPassword(id))

	_, err = ts.exec(t, "vault destroy", "y")
	require.NoError(t, err)

	_, err = keyring.GetPassword(id)
	assert.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestSessionExpiry(t *testing.T) {
	ts := newTestShell(t)
	ts.createAndOpen(t, "work")

	ts.now = ts.now.Add(session.DefaultTTL + time.Second)
	_, err := ts.exec(t, "vault show")
	assert.ErrorIs(t, err, session.ErrSessionExpired)
	assert.False(t, ts.state.Unlocked())

	ts.out.Reset()
	ts.HandleError(err)
	assert.Contains(t, ts.out.String(), "error: session expired")
}

func TestSearchAndStatus(t *testing.T) {
	ts := newTestShell(t)
	ts.createAndOpen(t, "work")
	ts.addEntry(t, "github", "octo", "s3cret!")
	ts.addEntry(t, "gitlab", "fox", "s3cret?")
	ts.addEntry(t, "bank", "me", "m0ney")

	out, err := ts.exec(t, "vault search gthub")
	require.NoError(t, err)
	assert.Contains(t, out, "github")
	assert.NotContains(t, out, "bank")
	assert.NotContains(t, out, "s3cret")

	out, err = ts.exec(t, "vault status")
	require.NoError(t, err)
	assert.Contains(t, out, "Vault:      work")
	assert.Contains(t, out, "Entries:    3")
	assert.Contains(t, out, "Keyring:    not stored")
}

func TestPasswd(t *testing.T) {
	ts := newTestShell(t)
	ts.createAndOpen(t, "work")
	ts.addEntry(t, "email", "me", "hunter2")

	ts.secrets("Wrong123!")
	_, err := ts.exec(t, "vault passwd")
	assert.ErrorIs(t, err, session.ErrPasswordMismatch)

	ts.secrets("Correct1!", "Better2@x", "Better2@x")
	out, err := ts.exec(t, "vault passwd")
	require.NoError(t, err)
	assert.Contains(t, out, "password changed successfully")

	_, err = ts.exec(t, "vault close")
	require.NoError(t, err)

	ts.secrets("Correct1!")
	_, err = ts.exec(t, "vault open work")
	assert.ErrorIs(t, err, crypto.ErrAuthFailed)

	ts.secrets("Better2@x")
	_, err = ts.exec(t, "vault open work")
	require.NoError(t, err)

	out, err = ts.exec(t, "vault show email -expose")
	require.NoError(t, err)
	assert.Contains(t, out, "password: hunter2")

	// An expired session is reported before the new password is asked for.
	ts.now = ts.now.Add(session.DefaultTTL + time.Second)
	ts.secrets("Better2@x", "Unused12!", "Unused12!")
	_, err = ts.exec(t, "vault passwd")
	assert.ErrorIs(t, err, session.ErrSessionExpired)
	assert.False(t, ts.state.Unlocked())
	assert.Equal(t, []string{"Unused12!", "Unused12!"}, ts.in.secrets)
	ts.in.secrets = nil
}

func TestKeyring(t *testing.T) {
	ts := newTestShell(t)
	ts.createAndOpen(t, "work")

	out, err := ts.exec(t, "vault keyring save")
	require.NoError(t, err)
	assert.Contains(t, out, "Password saved to keyring")

	out, err = ts.exec(t, "vault keyring status")
	require.NoError(t, err)
	assert.Contains(t, out, "stored in keyring")

	_, err = ts.exec(t, "vault close")
	require.NoError(t, err)

	// No secret queued: the keyring must supply it.
	out, err = ts.exec(t, "vault open work")
	require.NoError(t, err)
	assert.Contains(t, out, "Using password from keyring")

	// passwd keeps the keyring in step.
	ts.secrets("Correct1!", "Better2@x", "Better2@x")
	out, err = ts.exec(t, "vault passwd")
	require.NoError(t, err)
	assert.Contains(t, out, "Keyring updated")

	id, err := ts.store.VaultID("work")
	require.NoError(t, err)
	stored, err := keyring.GetPassword(id)
	require.NoError(t, err)
	assert.Equal(t, "Better2@x", string(stored))

	// A stale keyring password is removed and the user is prompted.
	require.NoError(t, keyring.SavePassword(id, []byte("Stale123!")))
	_, err = ts.exec(t, "vault close")
	require.NoError(t, err)
	ts.secrets("Better2@x")
	out, err = ts.exec(t, "vault open work")
	require.NoError(t, err)
	assert.Contains(t, out, "out of date")
	assert.False(t, keyring.HasPassword(id))

	out, err = ts.exec(t, "vault keyring delete")
	require.NoError(t, err)
	assert.Contains(t, out, "No password stored")
}

func TestGenerate(t *testing.T) {
	ts := newTestShell(t, WithClipboardClear(0))

	out, err := ts.exec(t, "generate 20")
	require.NoError(t, err)
	assert.Len(t, strings.TrimSpace(out), 20)

	out, err = ts.exec(t, "gen -avoid-ambiguous")
	require.NoError(t, err)
	assert.Len(t, strings.TrimSpace(out), security.DefaultGenerateLength)

	_, err = ts.exec(t, "generate 4")
	assert.Error(t, err)

	_, err = ts.exec(t, "generate many")
	assert.ErrorIs(t, err, errUsage)

	out, err = ts.exec(t, "generate -copy")
	require.NoError(t, err)
	assert.Contains(t, out, "Copied password")
	assert.Len(t, ts.clip.get(), security.DefaultGenerateLength)
}

func TestAnalyze(t *testing.T) {
	ts := newTestShell(t)

	out, err := ts.exec(t, "analyze abc")
	require.NoError(t, err)
	assert.Contains(t, out, "Strength: weak")

	ts.secrets("Tr0ub4dour&3xtra!")
	out, err = ts.exec(t, "score")
	require.NoError(t, err)
	assert.Contains(t, out, "Strength: strong")

	require.NoError(t, ts.clip.WriteAll("password1234"))
	out, err = ts.exec(t, "analyze -paste")
	require.NoError(t, err)
	assert.Contains(t, out, "Strength: fair")
}

func TestPanic(t *testing.T) {
	ts := newTestShell(t)
	ts.createAndOpen(t, "work")
	require.NoError(t, ts.clip.WriteAll("anything"))

	out, err := ts.exec(t, "panic")
	assert.ErrorIs(t, err, ErrExit)
	assert.False(t, ts.state.Unlocked())
	assert.Empty(t, ts.clip.get())
	assert.Contains(t, out, clearScreen)
}

func TestRunKeepsSecretsOutOfHistory(t *testing.T) {
	ts := newTestShell(t)
	ts.in.lines = []string{
		"vault list",
		"",
		"analyze hunter2",
		"vault update email -password hunter3",
		"vault update email -username me",
		"nonsense",
		"exit",
		"vault list",
	}

	require.NoError(t, ts.Run(context.Background()))
	assert.Equal(t, []string{
		"vault list",
		"vault update email -username me",
		"nonsense",
		"exit",
	}, ts.in.history)
	assert.Contains(t, ts.out.String(), "error: unknown command: nonsense")
	// exit stops the loop before the last line
	assert.Equal(t, []string{"vault list"}, ts.in.lines)
}

func TestRunEndsOnEOF(t *testing.T) {
	ts := newTestShell(t)
	ts.createAndOpen(t, "work")

	require.NoError(t, ts.Run(context.Background()))
	assert.False(t, ts.state.Unlocked())
}

func TestHelp(t *testing.T) {
	ts := newTestShell(t)

	out, err := ts.exec(t, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "vault open <name>")
	assert.Contains(t, out, "generate [length]")

	out, err = ts.exec(t, "? vault copy")
	require.NoError(t, err)
	assert.Contains(t, out, "vault copy <entry> [-username|-password]")
	assert.Contains(t, out, "Aliases: cp")

	out, err = ts.exec(t, "help nothing")
	require.NoError(t, err)
	assert.Contains(t, out, "No help available")
}

func TestUnknownCommand(t *testing.T) {
	ts := newTestShell(t)

	_, err := ts.exec(t, "fly")
	assert.ErrorIs(t, err, errUnknownCommand)
	_, err = ts.exec(t, "vault fly")
	assert.ErrorIs(t, err, errUnknownCommand)
}

func TestSensitive(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"analyze hunter2", true},
		{"score hunter2 -paste", true},
		{"analyze -paste", false},
		{"analyze", false},
		{"vault update email -password x", true},
		{"vlt up email -pwd x", true},
		{"vault update email -username x", false},
		{"vault update email -bogus x", true},
		{"vault show -expose", false},
		{"generate 20", false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, sensitive(strings.Fields(tt.line)))
		})
	}
}

func newFlagSet() *flag.FlagSet {
	return flag.NewFlagSet("test", flag.ContinueOnError)
}

func TestParseFlags(t *testing.T) {
	var expose bool
	fs := newFlagSet()
	fs.BoolVar(&expose, "expose", false, "")

	args, err := parseFlags(fs, []string{"email", "-expose"})
	require.NoError(t, err)
	assert.Equal(t, []string{"email"}, args)
	assert.True(t, expose)

	_, err = parseFlags(newFlagSet(), []string{"-nope"})
	assert.ErrorIs(t, err, errUsage)
}

func TestComplete(t *testing.T) {
	ts := newTestShell(t)
	ts.secrets("Correct1!", "Correct1!")
	_, err := ts.exec(t, "vault new work")
	require.NoError(t, err)

	assert.Equal(t, []string{"vault"}, ts.Complete("va"))
	assert.Equal(t, []string{"vault open"}, ts.Complete("vault op"))
	assert.Equal(t, []string{"vault open work"}, ts.Complete("vault open "))
	assert.Equal(t, []string{"vault show -expose"}, ts.Complete("vault show -e"))
	assert.Equal(t, []string{"vault keyring save", "vault keyring status"}, ts.Complete("vault keyring s"))
	assert.Nil(t, ts.Complete("fly "))
}

func TestHandleError(t *testing.T) {
	ts := newTestShell(t)

	ts.HandleError(session.ErrNoVaultOpen)
	assert.Contains(t, ts.out.String(), "error: no vault opened")
	assert.Contains(t, ts.out.String(), "vault open <name>")

	ts.out.Reset()
	ts.HandleError(ErrAborted)
	assert.Equal(t, "cancelled\n", ts.out.String())

	ts.out.Reset()
	ts.HandleError(errors.Join(core.ErrNotPersisted, errors.New("disk full")))
	assert.Contains(t, ts.out.String(), "kept in memory")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 bytes", formatSize(512))
	assert.Equal(t, "1.5 KB", formatSize(1536))
	assert.Equal(t, "2.0 MB", formatSize(2*1024*1024))
}
