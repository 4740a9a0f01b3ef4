package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/argon2"

	"github.com/illarion/passman/internal/vault"
)

const (
	SaltSize  = 16 // Salt size in bytes
	KeySize   = 32 // AES-256 key size
	NonceSize = 12 // GCM nonce size
	TagSize   = 16 // GCM authentication tag size

	// Argon2id cost, RFC 9106 second recommended option.
	ArgonTime    = 3
	ArgonMemory  = 64 * 1024 // KiB
	ArgonThreads = 4
)

// ErrAuthFailed covers both a wrong password and a damaged vault; callers
// cannot tell the two apart.
var ErrAuthFailed = errors.New("wrong password or corrupted vault")

// Sealed is the output of Seal: everything needed to decrypt apart from
// the password.
type Sealed struct {
	Salt       []byte
	Nonce      []byte
	Ciphertext []byte
}

// DeriveKey derives an encryption key from a password with Argon2id.
// The caller owns the key and should ClearBytes it.
func DeriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, ArgonTime, ArgonMemory, ArgonThreads, KeySize)
}

// Seal encrypts plaintext under a key derived from password, using a fresh
// salt and nonce.
func Seal(plaintext, password []byte) (*Sealed, error) {
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce, err := GenerateRandom(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	key := DeriveKey(password, salt)
	defer ClearBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	return &Sealed{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, plaintext, nil),
	}, nil
}

// Open reverses Seal. Any failure to authenticate returns ErrAuthFailed.
func Open(password []byte, s *Sealed) ([]byte, error) {
	if s == nil || len(s.Salt) != SaltSize || len(s.Nonce) != NonceSize || len(s.Ciphertext) < TagSize {
		return nil, ErrAuthFailed
	}

	key := DeriveKey(password, s.Salt)
	defer ClearBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, s.Nonce, s.Ciphertext, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// EncryptVault serializes and seals a vault. It has no side effects beyond
// its return value.
func EncryptVault(v *vault.Vault, password []byte) (*Sealed, error) {
	plaintext, err := v.Marshal()
	if err != nil {
		return nil, err
	}
	defer ClearBytes(plaintext)

	return Seal(plaintext, password)
}

// DecryptVault opens and deserializes a vault. A malformed plaintext is
// reported exactly like a failed tag check.
func DecryptVault(password []byte, s *Sealed) (*vault.Vault, error) {
	plaintext, err := Open(password, s)
	if err != nil {
		return nil, err
	}
	defer ClearBytes(plaintext)

	v, err := vault.Unmarshal(plaintext)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return v, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	memguard.WipeBytes(b)
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
