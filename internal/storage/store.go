package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
	"go.uber.org/zap"

	"github.com/illarion/passman/internal/crypto"
	"github.com/illarion/passman/internal/security"
	"github.com/illarion/passman/internal/vault"
)

// Extension is the file suffix of every vault file.
const Extension = ".vault"

// DefaultTimeout bounds the wait for another process's file lock.
const DefaultTimeout = time.Second

var (
	ErrNotFound          = errors.New("vault not found")
	ErrAlreadyExists     = errors.New("vault already exists")
	ErrUnsupportedFormat = errors.New("unsupported vault format")
	ErrMalformed         = errors.New("malformed vault file")
	ErrLocked            = errors.New("vault is in use by another process")
)

// Info is the unencrypted metadata of a vault file.
type Info struct {
	Name     string
	ID       string
	Created  time.Time
	Modified time.Time
	Size     int64
}

// Store keeps one bbolt file per vault inside the data directory. It holds
// no database open between calls.
type Store struct {
	root    *security.Root
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeout sets how long to wait for a file lock held elsewhere.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

// New returns a Store rooted at root.
func New(root *security.Root, opts ...Option) *Store {
	s := &Store{
		root:    root,
		timeout: DefaultTimeout,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.root.Dir()
}

// Create encrypts an empty vault under password and writes it as a new
// file. An existing vault is never overwritten. The file is built under a
// temporary name and renamed into place, so a crash never leaves a
// half-written vault behind.
func (s *Store) Create(name string, password []byte) error {
	file, err := fileName(name)
	if err != nil {
		return err
	}
	exists, err := s.root.Exists(file)
	if err != nil {
		return fmt.Errorf("failed to check vault %s: %w", name, err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}

	sealed, err := crypto.EncryptVault(vault.New(), password)
	if err != nil {
		return err
	}

	tmp := file + ".create"
	if err := s.root.Remove(tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove stale vault file: %w", err)
	}
	f, err := s.root.CreateExclusive(tmp, 0600)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}
	if err != nil {
		return fmt.Errorf("failed to create vault %s: %w", name, err)
	}
	f.Close()

	if err := s.initialize(tmp, EncodeVaultFile(sealed)); err != nil {
		s.root.Remove(tmp)
		return fmt.Errorf("failed to initialize vault %s: %w", name, err)
	}

	// Rename replaces; another process may have won the name meanwhile.
	if exists, _ := s.root.Exists(file); exists {
		s.root.Remove(tmp)
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}
	if err := s.root.Rename(tmp, file); err != nil {
		s.root.Remove(tmp)
		return fmt.Errorf("failed to create vault %s: %w", name, err)
	}

	s.logger.Info("vault created", zap.String("vault", name))
	return nil
}

func (s *Store) initialize(file string, f VaultFile) (err error) {
	path, err := s.root.Path(file)
	if err != nil {
		return err
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: s.timeout,
		OpenFile: func(_ string, flag int, perm os.FileMode) (*os.File, error) {
			return s.root.OpenFile(file, flag, perm)
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return db.Update(func(tx *bolt.Tx) error {
		return initialize(tx, uuid.New(), s.now(), f)
	})
}

// Save re-encrypts the whole vault with a fresh salt and nonce and replaces
// the stored fields in one transaction. A vault whose file is gone is not
// recreated.
func (s *Store) Save(name string, password []byte, v *vault.Vault) error {
	sealed, err := crypto.EncryptVault(v, password)
	if err != nil {
		return err
	}

	err = s.update(name, func(tx *bolt.Tx) error {
		return writeVaultFile(tx, s.now(), EncodeVaultFile(sealed))
	})
	if err != nil {
		s.logger.Warn("vault save failed", zap.String("vault", name), zap.Error(err))
		return err
	}

	s.logger.Debug("vault saved", zap.String("vault", name), zap.Int("entries", v.Len()))
	return nil
}

// Load reads and decrypts a vault.
func (s *Store) Load(name string, password []byte) (*vault.Vault, error) {
	var f VaultFile
	err := s.view(name, func(tx *bolt.Tx) error {
		var err error
		f, err = readVaultFile(tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	sealed, err := f.Decode()
	if err != nil {
		return nil, err
	}

	v, err := crypto.DecryptVault(password, sealed)
	if err != nil {
		s.logger.Info("vault decrypt failed", zap.String("vault", name))
		return nil, err
	}
	return v, nil
}

// Delete removes a vault file.
func (s *Store) Delete(name string) error {
	file, err := fileName(name)
	if err != nil {
		return err
	}

	if err := s.root.Remove(file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("failed to delete vault %s: %w", name, err)
	}

	s.logger.Info("vault deleted", zap.String("vault", name))
	return nil
}

// Exists reports whether a vault file is present.
func (s *Store) Exists(name string) (bool, error) {
	file, err := fileName(name)
	if err != nil {
		return false, err
	}
	return s.root.Exists(file)
}

// List returns the names of all vaults, sorted.
func (s *Store) List() ([]string, error) {
	files, err := s.root.Glob("*" + Extension)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		name := strings.TrimSuffix(f, Extension)
		if security.ValidateVaultName(name) != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Info returns a vault's unencrypted metadata. No password is needed.
func (s *Store) Info(name string) (*Info, error) {
	var info Info
	err := s.view(name, func(tx *bolt.Tx) error {
		var err error
		info, err = readInfo(tx)
		info.Size = tx.Size()
		return err
	})
	if err != nil {
		return nil, err
	}
	info.Name = name
	return &info, nil
}

// VaultID returns the stable identifier of a vault.
func (s *Store) VaultID(name string) (string, error) {
	info, err := s.Info(name)
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

// Compact rewrites a vault file without free pages and atomically replaces
// the original. It returns the file size before and after.
func (s *Store) Compact(name string) (before, after int64, err error) {
	file, err := fileName(name)
	if err != nil {
		return 0, 0, err
	}
	tmp := file + ".compact"

	src, err := s.open(name, false)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if src != nil {
			src.Close()
		}
	}()

	if info, err := s.root.Stat(file); err == nil {
		before = info.Size()
	}

	if err := s.root.Remove(tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, 0, fmt.Errorf("failed to remove stale compaction file: %w", err)
	}
	tmpPath, err := s.root.Path(tmp)
	if err != nil {
		return 0, 0, err
	}
	dst, err := bolt.Open(tmpPath, 0600, &bolt.Options{
		Timeout: s.timeout,
		OpenFile: func(_ string, flag int, perm os.FileMode) (*os.File, error) {
			return s.root.OpenFile(tmp, flag, perm)
		},
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create compact database: %w", err)
	}

	if err := bolt.Compact(dst, src, 0); err != nil {
		dst.Close()
		s.root.Remove(tmp)
		return 0, 0, fmt.Errorf("failed to copy data: %w", err)
	}
	if err := dst.Close(); err != nil {
		s.root.Remove(tmp)
		return 0, 0, fmt.Errorf("failed to close compact database: %w", err)
	}

	// The source lock is held until the copy is complete.
	err = src.Close()
	src = nil
	if err != nil {
		s.root.Remove(tmp)
		return 0, 0, fmt.Errorf("failed to close source database: %w", err)
	}

	if err := s.root.Rename(tmp, file); err != nil {
		s.root.Remove(tmp)
		return 0, 0, fmt.Errorf("failed to replace database: %w", err)
	}

	if info, err := s.root.Stat(file); err == nil {
		after = info.Size()
	}
	s.logger.Info("vault compacted", zap.String("vault", name),
		zap.Int64("before", before), zap.Int64("after", after))
	return before, after, nil
}

// open opens an existing vault file. The file is never created here, so a
// vault deleted underneath a session cannot be resurrected by a save.
func (s *Store) open(name string, readOnly bool) (*bolt.DB, error) {
	file, err := fileName(name)
	if err != nil {
		return nil, err
	}
	path, err := s.root.Path(file)
	if err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout:  s.timeout,
		ReadOnly: readOnly,
		OpenFile: func(_ string, flag int, perm os.FileMode) (*os.File, error) {
			return s.root.OpenFile(file, flag&^os.O_CREATE, perm)
		},
	})
	switch {
	case err == nil:
		return db, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	case errors.Is(err, berrors.ErrTimeout):
		return nil, fmt.Errorf("%w: %s", ErrLocked, name)
	case errors.Is(err, berrors.ErrInvalid), errors.Is(err, berrors.ErrVersionMismatch):
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedFormat, name, err)
	default:
		return nil, fmt.Errorf("failed to open vault %s: %w", name, err)
	}
}

func (s *Store) update(name string, fn func(*bolt.Tx) error) (err error) {
	db, err := s.open(name, false)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close vault %s: %w", name, cerr)
		}
	}()
	return db.Update(fn)
}

func (s *Store) view(name string, fn func(*bolt.Tx) error) error {
	db, err := s.open(name, true)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.View(fn)
}

func fileName(name string) (string, error) {
	if err := security.ValidateVaultName(name); err != nil {
		return "", err
	}
	return name + Extension, nil
}
