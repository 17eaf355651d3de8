package section

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds matches every [*BoundsError] via errors.Is.
	ErrOutOfBounds = errors.New("vault: out of bounds")

	// ErrSectionActive is returned when Within is called while another
	// section of the same file is active.
	ErrSectionActive = errors.New("vault: section already active")

	// ErrClosed is returned when using a closed File.
	ErrClosed = errors.New("vault: file closed")
)

// BoundsError describes a read, write, or seek that would leave the active
// section, or that was issued with no section active at all.
type BoundsError struct {
	// Op is "read", "write", "seek", or "narrow".
	Op string

	// Section is the active section name. Empty means no section was active.
	Section string

	// Offset is the absolute offset where the operation starts.
	Offset int64

	// Length is the number of bytes requested.
	Length int64

	// Start and End are the inclusive absolute boundaries of the section.
	Start, End int64
}

// Error implements error.
func (e *BoundsError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("vault: %s of %d bytes outside of an active section", e.Op, e.Length)
	}
	end := "inf"
	if e.End != Unbounded {
		end = fmt.Sprintf("%d", e.End)
	}
	return fmt.Sprintf("vault: %s outside of section %s (%d-%s): offset %d, length %d",
		e.Op, e.Section, e.Start, end, e.Offset, e.Length)
}

// Is reports whether target is ErrOutOfBounds.
func (e *BoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}
