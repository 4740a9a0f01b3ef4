package cmd

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/illarion/passman/internal/secret"
)

// Clipboard is the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// SystemClipboard uses the platform clipboard tools.
var SystemClipboard Clipboard = systemClipboard{}

// copySecret puts sec on the clipboard and schedules its removal. The
// clipboard is only cleared if it still holds what was copied.
func (s *Shell) copySecret(sec *secret.Secret, what string) error {
	var sum [32]byte
	err := sec.Use(func(b []byte) error {
		sum = sha256.Sum256(b)
		return s.clip.WriteAll(string(b))
	})
	if err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}

	s.clipMu.Lock()
	defer s.clipMu.Unlock()
	if s.clipTimer != nil {
		s.clipTimer.Stop()
		s.clipTimer = nil
	}
	s.clipSum = sum

	if s.clipClear <= 0 {
		fmt.Fprintf(s.out, "Copied %s to clipboard\n", what)
		return nil
	}
	s.clipTimer = time.AfterFunc(s.clipClear, func() {
		s.clearClipboard(false)
	})
	fmt.Fprintf(s.out, "Copied %s to clipboard (clears in %s)\n", what, s.clipClear)
	return nil
}

// clearClipboard wipes a secret this shell copied, provided the clipboard
// still holds it. With force it clears the clipboard unconditionally.
func (s *Shell) clearClipboard(force bool) {
	s.clipMu.Lock()
	defer s.clipMu.Unlock()

	if s.clipTimer != nil {
		s.clipTimer.Stop()
		s.clipTimer = nil
	}
	sum := s.clipSum
	s.clipSum = [32]byte{}

	if !force {
		if sum == ([32]byte{}) {
			return
		}
		current, err := s.clip.ReadAll()
		if err != nil || sha256.Sum256([]byte(current)) != sum {
			return
		}
	}
	if err := s.clip.WriteAll(""); err != nil {
		s.logger.Warn("failed to clear clipboard", zap.Error(err))
	}
}
