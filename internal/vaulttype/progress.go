package vaulttype

// ProgressEvent represents a progress update during save or extraction.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Name is the entry currently being processed, if known.
	Name string

	// Slot is the directory slot of the entry.
	Slot int

	// Bytes is the ciphertext size handled for the entry.
	Bytes uint64
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages for save and extraction.
const (
	// StageEncrypting indicates a pending entry is being encrypted.
	StageEncrypting ProgressStage = iota

	// StageCommitting indicates an entry's payload and directory row were written.
	StageCommitting

	// StageExtracting indicates an entry is being decrypted to disk.
	StageExtracting
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageEncrypting:
		return "encrypting"
	case StageCommitting:
		return "committing"
	case StageExtracting:
		return "extracting"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates.
type ProgressFunc func(ProgressEvent)
