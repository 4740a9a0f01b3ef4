// Package core provides the passman vault operations.
//
// Core operations include:
//   - Create/Open/Close: manage the single unlocked vault session
//   - AddEntry/UpdateEntry/DeleteEntry: mutate entries, then save
//   - Show/Search/Reveal: read entries, exposing secrets only on request
//   - Status/List/VaultID: describe vaults
//   - Destroy/ChangePassword/Compact: whole-vault maintenance
//
// Every entry operation runs the session's Access gate first, so an idle
// session locks itself on the next call. A mutation is saved before the
// operation returns; if the save fails the error wraps ErrNotPersisted and
// the change remains only in memory.
package core
