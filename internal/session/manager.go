package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/awnumar/memguard"
	"go.uber.org/zap"

	"github.com/illarion/passman/internal/crypto"
	"github.com/illarion/passman/internal/vault"
)

// DefaultTTL is the idle time after which an unlocked vault locks itself.
const DefaultTTL = 10 * time.Minute

var (
	ErrNoVaultOpen      = errors.New("no vault opened")
	ErrSessionExpired   = errors.New("session expired")
	ErrVaultOpen        = errors.New("a vault is already open")
	ErrPasswordMismatch = errors.New("current password is incorrect")
)

// Store is the persistence the manager needs.
type Store interface {
	Create(name string, password []byte) error
	Load(name string, password []byte) (*vault.Vault, error)
	Save(name string, password []byte, v *vault.Vault) error
	Delete(name string) error
	Compact(name string) (before, after int64, err error)
}

// Manager drives the Locked/Unlocked state machine of a State.
type Manager struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager returns a Manager backed by store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the idle timeout.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create persists a new empty vault. It does not open it and does not keep
// password.
func (m *Manager) Create(name string, password []byte) error {
	if err := m.store.Create(name, password); err != nil {
		return err
	}
	m.logger.Info("vault created", zap.String("vault", name))
	return nil
}

// Open decrypts a vault and installs it as the current session. Open takes
// ownership of password: it is moved into locked memory on success and
// wiped on failure. On failure the state stays Locked.
func (m *Manager) Open(st *State, name string, password []byte) error {
	if st.session != nil {
		memguard.WipeBytes(password)
		return fmt.Errorf("%w: %s", ErrVaultOpen, st.session.Name)
	}

	v, err := m.store.Load(name, password)
	if err != nil {
		memguard.WipeBytes(password)
		m.logger.Info("vault open failed", zap.String("vault", name), zap.Error(err))
		return err
	}

	st.session = &Session{
		Vault:     v,
		Name:      name,
		secret:    memguard.NewBufferFromBytes(password),
		expiresAt: m.now().Add(m.ttl),
	}
	m.logger.Info("vault opened", zap.String("vault", name), zap.Int("entries", v.Len()))
	return nil
}

// Access is the gate in front of every vault-touching operation. An
// expired session is closed before ErrSessionExpired is returned; a live
// one has its deadline pushed to now+TTL.
func (m *Manager) Access(st *State) (*Session, error) {
	s := st.session
	if s == nil {
		return nil, ErrNoVaultOpen
	}

	now := m.now()
	if now.After(s.expiresAt) {
		name := s.Name
		m.Close(st)
		m.logger.Info("session expired", zap.String("vault", name))
		return nil, ErrSessionExpired
	}

	s.expiresAt = now.Add(m.ttl)
	return s, nil
}

// Close locks the state, zeroizing the vault and the master password.
// Closing a Locked state does nothing.
func (m *Manager) Close(st *State) {
	s := st.session
	if s == nil {
		return
	}
	st.session = nil
	name := s.Name
	s.zeroize()
	m.logger.Info("vault closed", zap.String("vault", name))
}

// Persist writes the session's vault back to the store under the session
// password. Callers run Access first.
func (m *Manager) Persist(s *Session) error {
	if s == nil || s.secret == nil {
		return ErrNoVaultOpen
	}
	return m.store.Save(s.Name, s.secret.Bytes(), s.Vault)
}

// Destroy deletes the open vault from the store and then closes the
// session. If deletion fails the session stays open.
func (m *Manager) Destroy(st *State) error {
	s, err := m.Access(st)
	if err != nil {
		return err
	}

	if err := m.store.Delete(s.Name); err != nil {
		return err
	}
	m.logger.Info("vault destroyed", zap.String("vault", s.Name))
	m.Close(st)
	return nil
}

// ChangePassword re-encrypts the open vault under next after checking
// current against the session password. It takes ownership of both slices.
// The file is compacted afterwards so pages sealed under the old password do
// not linger.
func (m *Manager) ChangePassword(st *State, current, next []byte) error {
	defer memguard.WipeBytes(current)

	s, err := m.Access(st)
	if err != nil {
		memguard.WipeBytes(next)
		return err
	}

	if !crypto.ConstantTimeCompare(current, s.secret.Bytes()) {
		memguard.WipeBytes(next)
		return ErrPasswordMismatch
	}

	if err := m.store.Save(s.Name, next, s.Vault); err != nil {
		memguard.WipeBytes(next)
		return err
	}

	old := s.secret
	s.secret = memguard.NewBufferFromBytes(next)
	old.Destroy()
	m.logger.Info("vault password changed", zap.String("vault", s.Name))

	if _, _, err := m.store.Compact(s.Name); err != nil {
		m.logger.Warn("compaction after password change failed",
			zap.String("vault", s.Name), zap.Error(err))
	}
	return nil
}

// Compact compacts the open vault's file.
func (m *Manager) Compact(st *State) (before, after int64, err error) {
	s, err := m.Access(st)
	if err != nil {
		return 0, 0, err
	}
	return m.store.Compact(s.Name)
}

// VerifyPassword checks password against the open session's master password
// in constant time and returns ErrPasswordMismatch if it differs. Like every
// session operation it passes Access first, so an expired session is locked
// and reported instead.
func (m *Manager) VerifyPassword(st *State, password []byte) error {
	s, err := m.Access(st)
	if err != nil {
		return err
	}
	if !crypto.ConstantTimeCompare(password, s.secret.Bytes()) {
		return ErrPasswordMismatch
	}
	return nil
}

// WithSecret calls fn with the session's master password after Access
// succeeds. fn must not retain the slice.
func (m *Manager) WithSecret(st *State, fn func(password []byte) error) error {
	s, err := m.Access(st)
	if err != nil {
		return err
	}
	return fn(s.secret.Bytes())
}
