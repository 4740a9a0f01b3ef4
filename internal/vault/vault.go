package vault

import (
	"encoding/json"
	"fmt"

	"github.com/illarion/passman/internal/secret"
)

// Vault is an ordered collection of entries. Insertion order is kept; names
// are not forced unique and lookups act on the first match.
type Vault struct {
	Entries []*Entry
}

// New returns an empty vault.
func New() *Vault {
	return &Vault{Entries: make([]*Entry, 0)}
}

// Add appends an entry.
func (v *Vault) Add(e *Entry) {
	v.Entries = append(v.Entries, e)
}

// Find returns the first entry with the exact name, or nil.
func (v *Vault) Find(name string) *Entry {
	for _, e := range v.Entries {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Filter returns all entries with the exact name. An empty name matches all.
func (v *Vault) Filter(name string) []*Entry {
	if name == "" {
		out := make([]*Entry, len(v.Entries))
		copy(out, v.Entries)
		return out
	}
	var out []*Entry
	for _, e := range v.Entries {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Remove deletes every entry with the exact name and zeroizes them, so
// pointers obtained earlier no longer carry secrets. It returns the number
// of entries removed.
func (v *Vault) Remove(name string) int {
	kept := v.Entries[:0]
	removed := 0
	for _, e := range v.Entries {
		if e.Name == name {
			e.Zeroize()
			removed++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(v.Entries); i++ {
		v.Entries[i] = nil
	}
	v.Entries = kept
	return removed
}

// Len returns the number of entries.
func (v *Vault) Len() int {
	return len(v.Entries)
}

// Zeroize wipes every entry and empties the vault.
func (v *Vault) Zeroize() {
	for i, e := range v.Entries {
		e.Zeroize()
		v.Entries[i] = nil
	}
	v.Entries = nil
}

// entryRecord is the serialized form of an entry. The password travels as
// base64 so it decodes into a byte slice that can be wiped.
type entryRecord struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password []byte `json:"password"`
}

type vaultRecord struct {
	Entries []entryRecord `json:"entries"`
}

// Marshal serializes the vault. The caller should wipe the returned bytes
// once they have been sealed.
func (v *Vault) Marshal() ([]byte, error) {
	rec := vaultRecord{Entries: make([]entryRecord, len(v.Entries))}
	for i, e := range v.Entries {
		rec.Entries[i] = entryRecord{
			Name:     e.Name,
			Username: e.Username,
			Password: e.Password.Expose(),
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vault: %w", err)
	}
	return data, nil
}

// Unmarshal parses a serialized vault.
func Unmarshal(data []byte) (*Vault, error) {
	var rec vaultRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		for _, r := range rec.Entries {
			secret.New(r.Password).Destroy()
		}
		return nil, fmt.Errorf("failed to unmarshal vault: %w", err)
	}
	if rec.Entries == nil {
		return nil, fmt.Errorf("failed to unmarshal vault: missing entries")
	}

	v := &Vault{Entries: make([]*Entry, 0, len(rec.Entries))}
	for _, r := range rec.Entries {
		v.Add(NewEntry(r.Name, r.Username, r.Password))
	}
	return v, nil
}
