package vaulttype

import "errors"

// Format errors.
var (
	// ErrSignatureMismatch is returned when a file does not start with the vault magic.
	ErrSignatureMismatch = errors.New("vault: signature mismatch")

	// ErrDescriptorMismatch is returned when a local descriptor disagrees with its directory row.
	ErrDescriptorMismatch = errors.New("vault: local descriptor mismatch")

	// ErrChecksumMismatch is returned when ciphertext does not match its CRC-32.
	ErrChecksumMismatch = errors.New("vault: checksum mismatch")

	// ErrUnsupportedVersion is returned for a format version newer than this package writes.
	ErrUnsupportedVersion = errors.New("vault: unsupported format version")

	// ErrCorruptRow is returned when a directory or metadata row cannot be decoded.
	ErrCorruptRow = errors.New("vault: corrupt row")
)

// Capacity and validation errors.
var (
	// ErrTableFull is returned when adding an entry beyond the directory capacity.
	ErrTableFull = errors.New("vault: allocation table full")

	// ErrMetadataFull is returned when adding a metadata row beyond capacity.
	ErrMetadataFull = errors.New("vault: metadata table full")

	// ErrFieldTooLong is returned when a value does not fit its fixed-width field.
	ErrFieldTooLong = errors.New("vault: field too long")

	// ErrInvalidName is returned for an empty entry name.
	ErrInvalidName = errors.New("vault: invalid entry name")

	// ErrInvalidMetadata is returned for metadata rows that cannot be stored.
	ErrInvalidMetadata = errors.New("vault: invalid metadata row")

	// ErrNotCommitted is returned when reading an entry that has not been saved yet.
	ErrNotCommitted = errors.New("vault: entry not committed")

	// ErrFlagsLocked is returned when changing flags on a vault with committed entries.
	ErrFlagsLocked = errors.New("vault: flags locked by committed entries")

	// ErrSizeOverflow is returned when byte counts exceed supported limits.
	ErrSizeOverflow = errors.New("vault: size overflow")

	// ErrDecompression is returned when a compressed payload cannot be decoded.
	ErrDecompression = errors.New("vault: decompression failed")
)
