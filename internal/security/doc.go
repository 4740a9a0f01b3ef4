// Package security validates untrusted input before it reaches the vault
// core and confines file access to the data directory.
//
// Validation covers command arguments, vault names, master passwords and
// stored secrets. Root wraps os.Root so that a vault name can never address
// a file outside the data directory, even if validation were bypassed.
//
// Generate and Analyze back the shell's password generator and strength
// report.
package security
