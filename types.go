package vault

import (
	"time"

	"github.com/meigma/vault/internal/entry"
	"github.com/meigma/vault/internal/meta"
	"github.com/meigma/vault/internal/vaulttype"
)

// Re-export types from internal packages for the public API.
type (
	// Flags is the header flags bitmask.
	Flags = vaulttype.Flags

	// MetadataRow is one metadata pair.
	MetadataRow = meta.Row

	// ProgressEvent represents a progress update during save or extraction.
	ProgressEvent = vaulttype.ProgressEvent

	// ProgressStage identifies the current phase of an operation.
	ProgressStage = vaulttype.ProgressStage

	// ProgressFunc receives progress updates.
	ProgressFunc = vaulttype.ProgressFunc
)

// Re-export flag constants.
const (
	// FlagCompressed stores entries zstd-compressed before encryption.
	FlagCompressed = vaulttype.FlagCompressed
)

// Re-export progress stage constants.
const (
	// StageEncrypting indicates a pending entry is being encrypted.
	StageEncrypting = vaulttype.StageEncrypting

	// StageCommitting indicates an entry's payload and directory row were written.
	StageCommitting = vaulttype.StageCommitting

	// StageExtracting indicates an entry is being decrypted.
	StageExtracting = vaulttype.StageExtracting
)

// Sealed is the placeholder shown for values that need the private key.
const Sealed = vaulttype.Sealed

// FormatVersion is the version byte written on save.
const FormatVersion uint8 = 1

// Capacity limits.
const (
	// MaxEntries is the number of directory slots.
	MaxEntries = 4096

	// MaxMetadataRows is the number of metadata rows.
	MaxMetadataRows = 12
)

// MaxNameLen is the longest entry name, in bytes.
var MaxNameLen = entry.MaxNameLen

// Entry describes one stored file.
type Entry struct {
	// Slot is the directory slot, which is also the order of addition.
	Slot int

	// Name is the filename, or Sealed without the private key.
	Name string

	// ModTime is the stored modification time, at second precision.
	ModTime time.Time

	// Size is the ciphertext length. It is zero while Pending.
	Size uint64

	// Offset is the absolute payload offset. It is zero while Pending.
	Offset int64

	// Sealed is true when the name and key need the private key.
	Sealed bool

	// Pending is true until the entry is written by Save.
	Pending bool
}

func viewOf(e *entry.Entry) Entry {
	return Entry{
		Slot:    e.Slot(),
		Name:    e.Name(),
		ModTime: e.ModTime(),
		Size:    e.Length(),
		Offset:  e.Offset(),
		Sealed:  e.Sealed(),
		Pending: !e.Committed(),
	}
}
