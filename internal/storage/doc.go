// Package storage persists vaults, one BBolt database file per vault.
//
// Each <name>.vault file has two buckets:
//   - meta: format marker, vault ID (UUID), created/modified (unencrypted)
//   - vault: salt, nonce and ciphertext, each standard base64 text
//
// The unencrypted meta bucket lets the shell show a vault's ID and
// timestamps, and lets the keyring find a remembered password, without
// asking for the master password.
//
// Every save rewrites the three vault fields in a single transaction, so a
// crash leaves either the old or the new triple. BBolt also provides the
// file lock that keeps two processes from writing the same vault.
package storage
