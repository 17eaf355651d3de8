// Package keys provides the asymmetric keypair a vault wraps its symmetric
// keys under.
//
// A [Capability] holding only the public half can add entries to a vault
// (write-only access). Listing filenames, extracting entries, and editing
// metadata need the private half as well.
//
// The vault format stores 512-byte wrapped keys, so the RSA implementation
// requires 4096-bit keys.
package keys
