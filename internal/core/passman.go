package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/illarion/passman/internal/crypto"
	"github.com/illarion/passman/internal/secret"
	"github.com/illarion/passman/internal/session"
	"github.com/illarion/passman/internal/storage"
	"github.com/illarion/passman/internal/vault"
)

// HiddenPassword replaces the password in views that are not exposed.
const HiddenPassword = "<hidden>"

// ErrNotPersisted wraps a save failure that follows an in-memory change.
// The change stays in the open session but is not on disk.
var ErrNotPersisted = errors.New("change not saved")

// EntryNotFoundError reports a missing entry, with the closest existing
// name when there is a plausible one.
type EntryNotFoundError struct {
	Name       string
	Suggestion string
}

func (e *EntryNotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("entry not found: %s (did you mean %s?)", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("entry not found: %s", e.Name)
}

// Is makes errors.Is(err, vault.ErrEntryNotFound) hold.
func (e *EntryNotFoundError) Is(target error) bool {
	return target == vault.ErrEntryNotFound
}

// Catalog is the store-level view used by operations that do not need an
// open vault.
type Catalog interface {
	List() ([]string, error)
	Info(name string) (*storage.Info, error)
}

// Passman performs vault operations against a session State. Every
// operation on entries passes the session's Access gate first and persists
// any change before returning.
type Passman struct {
	sessions *session.Manager
	catalog  Catalog
	logger   *zap.Logger
}

// Option configures Passman.
type Option func(*Passman)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(p *Passman) {
		if l != nil {
			p.logger = l
		}
	}
}

// New returns a Passman.
func New(sessions *session.Manager, catalog Catalog, opts ...Option) *Passman {
	p := &Passman{
		sessions: sessions,
		catalog:  catalog,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EntryView is a display-ready copy of an entry. Password is a clone when
// the view is exposed and nil otherwise; Destroy the view when done.
type EntryView struct {
	Name     string
	Username string
	Password *secret.Secret
}

// PasswordText returns the cleartext password or HiddenPassword.
func (v EntryView) PasswordText() string {
	if v.Password == nil {
		return HiddenPassword
	}
	return string(v.Password.Expose())
}

// Exposed reports whether the view carries the cleartext password.
func (v EntryView) Exposed() bool {
	return v.Password != nil
}

// DestroyViews wipes every exposed password in views.
func DestroyViews(views []EntryView) {
	for i := range views {
		views[i].Password.Destroy()
		views[i].Password = nil
	}
}

// SearchResult is one fuzzy search hit. It carries no secret.
type SearchResult struct {
	Name     string
	Username string
	Distance int
}

// Status describes the open vault.
type Status struct {
	Name      string
	Entries   int
	ExpiresAt time.Time
	TTL       time.Duration
	Info      *storage.Info
}

// Create makes a new, empty vault. It does not open it.
func (p *Passman) Create(ctx context.Context, name string, password []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.sessions.Create(name, password)
}

// Open unlocks a vault into st. It takes ownership of password.
func (p *Passman) Open(ctx context.Context, st *session.State, name string, password []byte) error {
	if err := ctx.Err(); err != nil {
		crypto.ClearBytes(password)
		return err
	}
	return p.sessions.Open(st, name, password)
}

// Close locks st.
func (p *Passman) Close(st *session.State) {
	p.sessions.Close(st)
}

// List returns the names of all stored vaults. No session is needed.
func (p *Passman) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.catalog.List()
}

// VaultID returns a vault's stable identifier. No password is needed.
func (p *Passman) VaultID(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := p.catalog.Info(name)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// AddEntry appends an entry and saves. It takes ownership of password.
// Duplicate names are not checked here.
func (p *Passman) AddEntry(ctx context.Context, st *session.State, name, username string, password []byte) error {
	if err := ctx.Err(); err != nil {
		crypto.ClearBytes(password)
		return err
	}

	e := vault.NewEntry(name, username, password)
	s, err := p.sessions.Access(st)
	if err != nil {
		e.Zeroize()
		return err
	}
	if err := e.Validate(); err != nil {
		e.Zeroize()
		return err
	}

	s.Vault.Add(e)
	p.logger.Debug("entry added", zap.String("vault", s.Name), zap.String("entry", name))
	return p.persist(s)
}

// UpdateEntry replaces one field of the first entry named name and saves.
// It takes ownership of value.
func (p *Passman) UpdateEntry(ctx context.Context, st *session.State, name string, field vault.Field, value []byte) error {
	defer crypto.ClearBytes(value)
	if err := ctx.Err(); err != nil {
		return err
	}

	s, err := p.sessions.Access(st)
	if err != nil {
		return err
	}
	e := s.Vault.Find(name)
	if e == nil {
		return p.notFound(s, name)
	}
	if err := vault.ValidateField(field, value); err != nil {
		return err
	}

	// Set takes ownership; hand it a copy so the deferred wipe is safe.
	if err := e.Set(field, bytes.Clone(value)); err != nil {
		return err
	}
	p.logger.Debug("entry updated", zap.String("vault", s.Name),
		zap.String("entry", name), zap.Stringer("field", field))
	return p.persist(s)
}

// DeleteEntry removes every entry named name and saves.
func (p *Passman) DeleteEntry(ctx context.Context, st *session.State, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s, err := p.sessions.Access(st)
	if err != nil {
		return err
	}
	n := s.Vault.Remove(name)
	if n == 0 {
		return p.notFound(s, name)
	}
	p.logger.Debug("entry deleted", zap.String("vault", s.Name),
		zap.String("entry", name), zap.Int("count", n))
	return p.persist(s)
}

// HasEntry reports whether an entry named name exists.
func (p *Passman) HasEntry(ctx context.Context, st *session.State, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s, err := p.sessions.Access(st)
	if err != nil {
		return false, err
	}
	return s.Vault.Find(name) != nil, nil
}

// Show returns views of the entries named filter, or of all entries when
// filter is empty. Passwords are cloned into the views only when expose is
// set.
func (p *Passman) Show(ctx context.Context, st *session.State, filter string, expose bool) ([]EntryView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, err := p.sessions.Access(st)
	if err != nil {
		return nil, err
	}
	entries := s.Vault.Filter(filter)
	if filter != "" && len(entries) == 0 {
		return nil, p.notFound(s, filter)
	}

	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		v := EntryView{Name: e.Name, Username: e.Username}
		if expose {
			v.Password = e.Password.Clone()
		}
		views = append(views, v)
	}
	return views, nil
}

// Search fuzzily matches entry names against query, closest first.
func (p *Passman) Search(ctx context.Context, st *session.State, query string) ([]SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, err := p.sessions.Access(st)
	if err != nil {
		return nil, err
	}
	matches := s.Vault.Search(query)
	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, SearchResult{
			Name:     m.Entry.Name,
			Username: m.Entry.Username,
			Distance: m.Distance,
		})
	}
	return results, nil
}

// Reveal returns one field of the first entry named name as a secret the
// caller must Destroy.
func (p *Passman) Reveal(ctx context.Context, st *session.State, name string, field vault.Field) (*secret.Secret, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, err := p.sessions.Access(st)
	if err != nil {
		return nil, err
	}
	e := s.Vault.Find(name)
	if e == nil {
		return nil, p.notFound(s, name)
	}

	switch field {
	case vault.FieldUsername:
		return secret.FromString(e.Username), nil
	case vault.FieldPassword:
		return e.Password.Clone(), nil
	default:
		return nil, fmt.Errorf("%w: %s", vault.ErrUnknownField, field)
	}
}

// Status describes the open vault. Asking renews the session like any
// other access.
func (p *Passman) Status(ctx context.Context, st *session.State) (*Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, err := p.sessions.Access(st)
	if err != nil {
		return nil, err
	}

	status := &Status{
		Name:      s.Name,
		Entries:   s.Vault.Len(),
		ExpiresAt: s.ExpiresAt(),
		TTL:       p.sessions.TTL(),
	}
	info, err := p.catalog.Info(s.Name)
	if err != nil {
		// Not critical
		p.logger.Warn("vault info unavailable", zap.String("vault", s.Name), zap.Error(err))
	} else {
		status.Info = info
	}
	return status, nil
}

// Destroy deletes the open vault from disk and locks st.
func (p *Passman) Destroy(ctx context.Context, st *session.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.sessions.Destroy(st)
}

// ChangePassword re-encrypts the open vault under next. It takes ownership
// of both passwords.
func (p *Passman) ChangePassword(ctx context.Context, st *session.State, current, next []byte) error {
	if err := ctx.Err(); err != nil {
		crypto.ClearBytes(current)
		crypto.ClearBytes(next)
		return err
	}
	return p.sessions.ChangePassword(st, current, next)
}

// VerifyPassword checks password against the open vault's master password.
// It fails with session.ErrPasswordMismatch, or with the session error if
// the vault is locked or has expired.
func (p *Passman) VerifyPassword(st *session.State, password []byte) error {
	return p.sessions.VerifyPassword(st, password)
}

// WithMasterPassword calls fn with the open vault's master password. fn
// must not retain the slice.
func (p *Passman) WithMasterPassword(ctx context.Context, st *session.State, fn func(password []byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.sessions.WithSecret(st, fn)
}

// Compact reclaims free space in the open vault's file.
func (p *Passman) Compact(ctx context.Context, st *session.State) (before, after int64, err error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	return p.sessions.Compact(st)
}

// persist saves the session. A failure leaves the in-memory change in place
// and is reported wrapped in ErrNotPersisted.
func (p *Passman) persist(s *session.Session) error {
	if err := p.sessions.Persist(s); err != nil {
		p.logger.Error("vault not persisted", zap.String("vault", s.Name), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}
	return nil
}

func (p *Passman) notFound(s *session.Session, name string) error {
	return &EntryNotFoundError{Name: name, Suggestion: s.Vault.Suggest(name)}
}
