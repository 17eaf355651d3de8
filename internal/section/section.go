package section

import "math"

// Unbounded is the end boundary of a section without an upper limit.
const Unbounded int64 = math.MaxInt64

// Magic is the vault file signature stored in the Signature section.
var Magic = [4]byte{0x0A, 0x44, 0x7B, 0x22}

// Section is a named byte range of the vault file. Start and End are absolute,
// inclusive offsets.
type Section struct {
	Name  string
	Start int64
	End   int64
}

// Fixed vault sections.
var (
	Signature       = Section{Name: "signature", Start: 0, End: 3}
	Version         = Section{Name: "version", Start: 4, End: 4}
	Flags           = Section{Name: "flags", Start: 5, End: 5}
	Metadata        = Section{Name: "metadata", Start: 6, End: 1721}
	AllocationTable = Section{Name: "allocation_table", Start: 1722, End: 3_380_921}
	Data            = Section{Name: "data", Start: 3_380_922, End: Unbounded}
)

// All lists the fixed sections in file order.
var All = []Section{Signature, Version, Flags, Metadata, AllocationTable, Data}

// Len returns the number of bytes in the section.
// Unbounded sections report the distance to [Unbounded].
func (s Section) Len() int64 {
	if s.End == Unbounded {
		return Unbounded - s.Start
	}
	return s.End - s.Start + 1
}

// Bounded reports whether the section has a fixed end.
func (s Section) Bounded() bool {
	return s.End != Unbounded
}

// Contains reports whether the absolute offset lies inside the section.
func (s Section) Contains(off int64) bool {
	return off >= s.Start && off <= s.End
}

// fits reports whether n bytes starting at absolute offset pos stay inside s.
func (s Section) fits(pos, n int64) bool {
	switch {
	case n < 0:
		return false
	case n == 0:
		return true
	case !s.Contains(pos):
		return false
	default:
		return pos <= s.End-(n-1)
	}
}
