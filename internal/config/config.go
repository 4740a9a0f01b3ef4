// Package config loads passman's TOML configuration.
//
// Configuration is read from:
//   - $XDG_CONFIG_HOME/passman/config.toml (or the -config flag)
//
// A missing file means defaults. The only environment override is
// PASSMAN_DATA_DIR, which replaces data_dir.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

const (
	appName = "passman"

	// EnvDataDir overrides the data directory.
	EnvDataDir = "PASSMAN_DATA_DIR"

	DefaultLogLevel       = "info"
	DefaultLogFile        = "passman.log"
	DefaultClipboardClear = 10 * time.Second
	DefaultUnlockAttempts = 3
	DefaultUnlockInterval = 2 * time.Second
	DefaultHistoryFile    = "history"
)

// Duration is a time.Duration written as a Go duration string ("10s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the passman configuration.
type Config struct {
	// DataDir holds the vault files, the log and the shell history.
	DataDir string `toml:"data_dir"`

	// LogLevel is one of debug, info, warn, error or off.
	LogLevel string `toml:"log_level"`

	// LogFile is relative to DataDir unless absolute.
	LogFile string `toml:"log_file"`

	// ClipboardClear is how long a copied secret stays on the clipboard.
	// Zero disables clearing.
	ClipboardClear Duration `toml:"clipboard_clear"`

	// UnlockAttempts is how many unlock attempts may be made back to back
	// before throttling starts.
	UnlockAttempts int `toml:"unlock_attempts"`

	// UnlockInterval is the time it takes to earn back one attempt.
	UnlockInterval Duration `toml:"unlock_interval"`

	// History enables the persistent shell history file. Lines carrying
	// secrets are never recorded.
	History bool `toml:"history"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:        filepath.Join(xdg.DataHome, appName),
		LogLevel:       DefaultLogLevel,
		LogFile:        DefaultLogFile,
		ClipboardClear: Duration{DefaultClipboardClear},
		UnlockAttempts: DefaultUnlockAttempts,
		UnlockInterval: Duration{DefaultUnlockInterval},
	}
}

// Path returns the default configuration file location.
func Path() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

// Load reads the configuration at path, or at Path() when path is empty.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	default:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies PASSMAN_DATA_DIR.
func (c *Config) ApplyEnvOverrides() {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		c.DataDir = dir
	}
}

// SetDefaults fills empty fields and expands a leading ~ in paths.
func (c *Config) SetDefaults() {
	if c.DataDir == "" {
		c.DataDir = filepath.Join(xdg.DataHome, appName)
	}
	c.DataDir = expandHome(c.DataDir)
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.LogFile == "" {
		c.LogFile = DefaultLogFile
	}
	c.LogFile = expandHome(c.LogFile)
	if c.UnlockAttempts == 0 {
		c.UnlockAttempts = DefaultUnlockAttempts
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs ValidateErrors

	switch c.LogLevel {
	case "debug", "info", "warn", "error", "off":
	default:
		errs = append(errs, ValidationError{"log_level", fmt.Sprintf("unknown level %q", c.LogLevel)})
	}
	if c.ClipboardClear.Duration < 0 {
		errs = append(errs, ValidationError{"clipboard_clear", "must not be negative"})
	}
	if c.UnlockAttempts < 1 {
		errs = append(errs, ValidationError{"unlock_attempts", "must be at least 1"})
	}
	if c.UnlockInterval.Duration < 0 {
		errs = append(errs, ValidationError{"unlock_interval", "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// LogPath returns the absolute log file path.
func (c *Config) LogPath() string {
	if filepath.IsAbs(c.LogFile) {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, c.LogFile)
}

// HistoryPath returns the shell history file, or "" when history is off.
func (c *Config) HistoryPath() string {
	if !c.History {
		return ""
	}
	return filepath.Join(c.DataDir, DefaultHistoryFile)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
