// Package crypto provides the vault cryptographic engine for passman.
//
// Encryption uses AES-256-GCM with:
//   - 32-byte key derived from the master password via Argon2id
//   - 12-byte random nonce per encryption operation
//   - Authenticated encryption: any modified byte fails decryption
//
// Key derivation uses Argon2id with:
//   - 16-byte random salt, regenerated on every save
//   - t=3, m=64 MiB, p=4 (fixed, not user-tunable)
//
// Decryption failures, whether from a wrong password, a flipped bit, or a
// plaintext that does not parse, all surface as ErrAuthFailed.
//
// Memory safety:
//   - Derived keys and plaintexts are wiped with ClearBytes before return
package crypto
