// Package vault defines the in-memory credential vault.
//
// A Vault is an ordered list of entries. Each entry keeps its password in a
// secret.Secret so it can be wiped when the entry is removed or the vault is
// zeroized. Names are not forced unique: duplicate handling belongs to the
// caller, and name lookups act on the first match.
//
// The serialized form is JSON:
//
//	{"entries":[{"name":"email","username":"me","password":"aHVudGVyMg=="}]}
//
// with the password base64-encoded so decoding yields a wipeable byte slice.
package vault
