package storage

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/illarion/passman/internal/crypto"
)

// FormatVersion is written to every vault file. Files carrying any other
// value are refused.
const FormatVersion = "1"

// Bucket names
var (
	MetaBucket  = []byte("meta")  // Format marker, vault ID, timestamps - unencrypted
	VaultBucket = []byte("vault") // Salt, nonce and ciphertext, base64 text
)

// Meta keys
var (
	MetaFormat   = []byte("format")
	MetaVaultID  = []byte("vault_id")
	MetaCreated  = []byte("created")
	MetaModified = []byte("modified")
)

// Vault keys
var (
	VaultSalt       = []byte("salt")
	VaultNonce      = []byte("nonce")
	VaultCiphertext = []byte("ciphertext")
)

// VaultFile is the persisted form of one vault: three base64 text fields.
type VaultFile struct {
	Salt       string
	Nonce      string
	Ciphertext string
}

// EncodeVaultFile converts sealed output into its text form.
func EncodeVaultFile(s *crypto.Sealed) VaultFile {
	return VaultFile{
		Salt:       base64.StdEncoding.EncodeToString(s.Salt),
		Nonce:      base64.StdEncoding.EncodeToString(s.Nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(s.Ciphertext),
	}
}

// Decode parses the text fields. Only canonical base64 is accepted; corrupt
// encoding is indistinguishable from a failed authentication.
func (f VaultFile) Decode() (*crypto.Sealed, error) {
	salt, err := base64.StdEncoding.Strict().DecodeString(f.Salt)
	if err != nil {
		return nil, crypto.ErrAuthFailed
	}
	nonce, err := base64.StdEncoding.Strict().DecodeString(f.Nonce)
	if err != nil {
		return nil, crypto.ErrAuthFailed
	}
	ciphertext, err := base64.StdEncoding.Strict().DecodeString(f.Ciphertext)
	if err != nil {
		return nil, crypto.ErrAuthFailed
	}
	return &crypto.Sealed{Salt: salt, Nonce: nonce, Ciphertext: ciphertext}, nil
}

// initialize creates the bucket structure for a new vault file.
func initialize(tx *bolt.Tx, id uuid.UUID, now time.Time, f VaultFile) error {
	meta, err := tx.CreateBucket(MetaBucket)
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", MetaBucket, err)
	}
	if _, err := tx.CreateBucket(VaultBucket); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", VaultBucket, err)
	}

	stamp := []byte(now.UTC().Format(time.RFC3339))
	for _, kv := range [][2][]byte{
		{MetaFormat, []byte(FormatVersion)},
		{MetaVaultID, []byte(id.String())},
		{MetaCreated, stamp},
		{MetaModified, stamp},
	} {
		if err := meta.Put(kv[0], kv[1]); err != nil {
			return err
		}
	}
	return writeVaultFile(tx, now, f)
}

// writeVaultFile replaces the three vault fields and bumps the modified time.
// Within a single transaction they change together or not at all.
func writeVaultFile(tx *bolt.Tx, now time.Time, f VaultFile) error {
	meta, data, err := buckets(tx)
	if err != nil {
		return err
	}

	for _, kv := range [][2][]byte{
		{VaultSalt, []byte(f.Salt)},
		{VaultNonce, []byte(f.Nonce)},
		{VaultCiphertext, []byte(f.Ciphertext)},
	} {
		if err := data.Put(kv[0], kv[1]); err != nil {
			return err
		}
	}
	return meta.Put(MetaModified, []byte(now.UTC().Format(time.RFC3339)))
}

// readVaultFile reads the three vault fields.
func readVaultFile(tx *bolt.Tx) (VaultFile, error) {
	_, data, err := buckets(tx)
	if err != nil {
		return VaultFile{}, err
	}

	var f VaultFile
	for _, field := range []struct {
		key []byte
		dst *string
	}{
		{VaultSalt, &f.Salt},
		{VaultNonce, &f.Nonce},
		{VaultCiphertext, &f.Ciphertext},
	} {
		v := data.Get(field.key)
		if v == nil {
			return VaultFile{}, fmt.Errorf("%w: %s missing", ErrMalformed, field.key)
		}
		// string() copies; the slice is only valid during the transaction
		*field.dst = string(v)
	}
	return f, nil
}

// readInfo reads the unencrypted metadata.
func readInfo(tx *bolt.Tx) (Info, error) {
	meta, _, err := buckets(tx)
	if err != nil {
		return Info{}, err
	}

	id, err := uuid.ParseBytes(meta.Get(MetaVaultID))
	if err != nil {
		return Info{}, fmt.Errorf("%w: bad vault_id", ErrMalformed)
	}
	info := Info{ID: id.String()}

	for _, field := range []struct {
		key []byte
		dst *time.Time
	}{
		{MetaCreated, &info.Created},
		{MetaModified, &info.Modified},
	} {
		t, err := time.Parse(time.RFC3339, string(meta.Get(field.key)))
		if err != nil {
			return Info{}, fmt.Errorf("%w: bad %s", ErrMalformed, field.key)
		}
		*field.dst = t
	}
	return info, nil
}

// buckets returns the meta and vault buckets after checking the format marker.
func buckets(tx *bolt.Tx) (meta, data *bolt.Bucket, err error) {
	meta = tx.Bucket(MetaBucket)
	if meta == nil {
		return nil, nil, fmt.Errorf("%w: meta bucket not found", ErrUnsupportedFormat)
	}
	if v := meta.Get(MetaFormat); string(v) != FormatVersion {
		return nil, nil, fmt.Errorf("%w: format %q", ErrUnsupportedFormat, v)
	}
	data = tx.Bucket(VaultBucket)
	if data == nil {
		return nil, nil, fmt.Errorf("%w: vault bucket not found", ErrMalformed)
	}
	return meta, data, nil
}
