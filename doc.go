// Package vault implements an encrypted single-file archive container.
//
// A vault stores up to 4096 files and 12 metadata pairs in one flat file.
// Every file is encrypted under its own random AES-256 key, and that key is
// wrapped under an RSA-4096 public key and stored beside the ciphertext.
//
// The file has fixed sections:
//   - Header: magic signature, format version, flags
//   - Metadata: a shared wrapped key and IV plus twelve 99-byte rows
//   - Allocation table: 4096 directory rows of 825 bytes
//   - Data: local descriptors followed by ciphertexts, appended in slot order
//
// Opening a vault with only the public half of a keypair gives write-only
// access: entries can be added and saved, but filenames and encrypted
// metadata read as "[ENCRYPTED]" and extraction fails. The private half adds
// listing, extraction, and metadata edits.
//
// Save is append-only and idempotent. Saving twice without new entries,
// metadata rows, or flag changes leaves the directory and metadata bytes
// untouched.
//
// A Vault is not safe for concurrent use.
package vault
