// Package secret provides a scoped container for sensitive byte strings.
//
// A Secret owns its backing memory. The bytes are reachable only through
// Expose or Use, and Destroy overwrites them in place. Callers are expected
// to pair every constructor with a deferred Destroy; a runtime cleanup wipes
// the memory as a last resort if a Secret becomes unreachable first.
package secret

import (
	"crypto/subtle"
	"runtime"

	"github.com/awnumar/memguard"
)

const redacted = "[REDACTED]"

// Secret holds sensitive bytes until Destroy is called.
type Secret struct {
	b         []byte
	destroyed bool
}

// New takes ownership of b. The caller must not use b afterwards.
func New(b []byte) *Secret {
	s := &Secret{b: b}
	if len(b) > 0 {
		runtime.AddCleanup(s, wipe, b)
	}
	return s
}

// FromString copies s into a new Secret. The source string cannot be wiped.
func FromString(s string) *Secret {
	return New([]byte(s))
}

// Copy returns a Secret holding a private copy of b. b is left untouched.
func Copy(b []byte) *Secret {
	c := make([]byte, len(b))
	copy(c, b)
	return New(c)
}

func wipe(b []byte) {
	memguard.WipeBytes(b)
}

// Expose returns the backing bytes. The slice is only valid until Destroy.
func (s *Secret) Expose() []byte {
	if s == nil || s.destroyed {
		return nil
	}
	return s.b
}

// Use calls fn with the backing bytes.
func (s *Secret) Use(fn func([]byte) error) error {
	return fn(s.Expose())
}

// Len returns the number of secret bytes.
func (s *Secret) Len() int {
	return len(s.Expose())
}

// Equal reports whether the secret equals b, in constant time.
func (s *Secret) Equal(b []byte) bool {
	return subtle.ConstantTimeCompare(s.Expose(), b) == 1
}

// Clone returns an independent copy.
func (s *Secret) Clone() *Secret {
	return Copy(s.Expose())
}

// Destroyed reports whether Destroy has been called.
func (s *Secret) Destroyed() bool {
	return s == nil || s.destroyed
}

// Destroy overwrites the backing memory. It is safe to call more than once.
func (s *Secret) Destroy() {
	if s == nil || s.destroyed {
		return
	}
	wipe(s.b)
	s.b = nil
	s.destroyed = true
}

// String never reveals the secret.
func (s *Secret) String() string {
	return redacted
}

// GoString never reveals the secret, even with %#v.
func (s *Secret) GoString() string {
	return redacted
}
