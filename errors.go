package vault

import (
	"errors"

	"github.com/meigma/vault/internal/platform"
	"github.com/meigma/vault/internal/section"
	"github.com/meigma/vault/internal/vaulttype"
	"github.com/meigma/vault/keys"
)

// BoundsError describes I/O that would leave the active section.
type BoundsError = section.BoundsError

// Format errors re-exported from internal/vaulttype.
var (
	// ErrSignatureMismatch is returned when a file does not start with the vault magic.
	ErrSignatureMismatch = vaulttype.ErrSignatureMismatch

	// ErrUnsupportedVersion is returned for a format version newer than this package writes.
	ErrUnsupportedVersion = vaulttype.ErrUnsupportedVersion

	// ErrDescriptorMismatch is returned when a local descriptor disagrees with its directory row.
	ErrDescriptorMismatch = vaulttype.ErrDescriptorMismatch

	// ErrChecksumMismatch is returned when ciphertext does not match its CRC-32.
	ErrChecksumMismatch = vaulttype.ErrChecksumMismatch

	// ErrCorruptRow is returned when a directory or metadata row cannot be decoded.
	ErrCorruptRow = vaulttype.ErrCorruptRow
)

// Capacity and validation errors re-exported from internal/vaulttype.
var (
	// ErrTableFull is returned when adding a 4097th entry.
	ErrTableFull = vaulttype.ErrTableFull

	// ErrMetadataFull is returned when adding a 13th metadata row.
	ErrMetadataFull = vaulttype.ErrMetadataFull

	// ErrFieldTooLong is returned when a name, key, or value does not fit its field.
	ErrFieldTooLong = vaulttype.ErrFieldTooLong

	// ErrInvalidName is returned for an empty entry name.
	ErrInvalidName = vaulttype.ErrInvalidName

	// ErrInvalidMetadata is returned for metadata rows that cannot be stored.
	ErrInvalidMetadata = vaulttype.ErrInvalidMetadata

	// ErrNotCommitted is returned when extracting an entry that has not been saved.
	ErrNotCommitted = vaulttype.ErrNotCommitted

	// ErrFlagsLocked is returned when changing flags once entries are committed.
	ErrFlagsLocked = vaulttype.ErrFlagsLocked

	// ErrSizeOverflow is returned when byte counts exceed configured limits.
	ErrSizeOverflow = vaulttype.ErrSizeOverflow

	// ErrDecompression is returned when a compressed payload cannot be decoded.
	ErrDecompression = vaulttype.ErrDecompression
)

// Bounds errors re-exported from internal/section.
var (
	// ErrOutOfBounds matches every *BoundsError.
	ErrOutOfBounds = section.ErrOutOfBounds

	// ErrClosed is returned when using a closed Vault.
	ErrClosed = section.ErrClosed
)

// Capability errors re-exported from keys.
var (
	// ErrNoPublicKey is returned when an operation needs public-encrypt capability.
	ErrNoPublicKey = keys.ErrNoPublicKey

	// ErrNoPrivateKey is returned when an operation needs private-decrypt capability.
	ErrNoPrivateKey = keys.ErrNoPrivateKey
)

// ErrSymlink is returned when Add is given a symbolic link.
var ErrSymlink = platform.ErrSymlink

// ErrNoEntry is returned for an Entry that does not belong to the vault.
var ErrNoEntry = errors.New("vault: no such entry")
