package security

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

var ErrPathEscapes = errors.New("path escapes data directory")

// Root confines file operations to the data directory using Go 1.24's
// os.Root API. Vault files are addressed by plain file names; anything that
// is not a single local path element is rejected before touching disk.
type Root struct {
	root *os.Root
	dir  string
}

// OpenRoot creates dir (mode 0700) if needed and opens it as a Root.
func OpenRoot(dir string) (*Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	if err := os.MkdirAll(abs, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}
	return &Root{root: root, dir: abs}, nil
}

// Close releases the directory handle.
func (r *Root) Close() error {
	if r.root != nil {
		return r.root.Close()
	}
	return nil
}

// Dir returns the absolute path of the data directory.
func (r *Root) Dir() string {
	return r.dir
}

// Path validates name and returns its absolute path inside the root, for
// libraries that only accept paths.
func (r *Root) Path(name string) (string, error) {
	if err := checkLocal(name); err != nil {
		return "", err
	}
	return filepath.Join(r.dir, name), nil
}

// Stat stats a file inside the root.
func (r *Root) Stat(name string) (fs.FileInfo, error) {
	if err := checkLocal(name); err != nil {
		return nil, err
	}
	return r.root.Stat(name)
}

// Exists reports whether name exists inside the root.
func (r *Root) Exists(name string) (bool, error) {
	_, err := r.Stat(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// CreateExclusive creates name and fails with fs.ErrExist if it is already
// there. The returned file is open for writing.
func (r *Root) CreateExclusive(name string, perm os.FileMode) (*os.File, error) {
	if err := checkLocal(name); err != nil {
		return nil, err
	}
	return r.root.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, perm)
}

// OpenFile opens a file inside the root with the given flags.
func (r *Root) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	if err := checkLocal(name); err != nil {
		return nil, err
	}
	return r.root.OpenFile(name, flag, perm)
}

// Rename atomically replaces newname with oldname. Both must be plain file
// names inside the root.
func (r *Root) Rename(oldname, newname string) error {
	oldpath, err := r.Path(oldname)
	if err != nil {
		return err
	}
	newpath, err := r.Path(newname)
	if err != nil {
		return err
	}
	return os.Rename(oldpath, newpath)
}

// Remove deletes a file inside the root.
func (r *Root) Remove(name string) error {
	if err := checkLocal(name); err != nil {
		return err
	}
	return r.root.Remove(name)
}

// Glob returns the sorted names of regular files in the root matching pattern.
func (r *Root) Glob(pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, err
	}

	d, err := r.root.Open(".")
	if err != nil {
		return nil, fmt.Errorf("failed to open data directory: %w", err)
	}
	defer d.Close()

	entries, err := d.ReadDir(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// checkLocal accepts exactly one local path element.
func checkLocal(name string) error {
	if name == "" || !filepath.IsLocal(name) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrPathEscapes, name)
	}
	return nil
}
