// Package session owns the unlocked vault.
//
// A State holds at most one Session. Manager moves it between Locked and
// Unlocked: Open decrypts a vault into a fresh Session, Access gates every
// operation and slides the expiry deadline, Close zeroizes everything.
//
// Expiry is polled, not timed: a session whose deadline has passed stays in
// memory until the next Access, which locks it and reports
// ErrSessionExpired.
//
// The master password lives in a memguard LockedBuffer for the life of the
// session and is destroyed on Close.
package session
