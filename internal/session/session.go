package session

import (
	"time"

	"github.com/awnumar/memguard"

	"github.com/illarion/passman/internal/vault"
)

// Session is one unlocked vault together with its master password and
// expiry deadline.
type Session struct {
	Vault *vault.Vault
	Name  string

	secret    *memguard.LockedBuffer
	expiresAt time.Time
}

// ExpiresAt returns the current deadline. Every accepted access moves it.
func (s *Session) ExpiresAt() time.Time {
	return s.expiresAt
}

// zeroize wipes every entry and destroys the master password.
func (s *Session) zeroize() {
	if s.Vault != nil {
		s.Vault.Zeroize()
		s.Vault = nil
	}
	if s.secret != nil {
		s.secret.Destroy()
		s.secret = nil
	}
}

// State is the single session slot. The zero value is Locked.
//
// State is not safe for concurrent use; hosts that serve several callers
// must serialize access to it.
type State struct {
	session *Session
}

// Unlocked reports whether a session is held, without checking or renewing
// its expiry. An expired session stays here until the next access.
func (st *State) Unlocked() bool {
	return st.session != nil
}

// Name returns the open vault's name, or "" when Locked.
func (st *State) Name() string {
	if st.session == nil {
		return ""
	}
	return st.session.Name
}
