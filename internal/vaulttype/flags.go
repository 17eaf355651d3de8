package vaulttype

// Flags is the header flags bitmask (byte 5).
type Flags uint8

const (
	// FlagCompressed marks entry plaintexts as zstd-compressed before encryption.
	FlagCompressed Flags = 1 << iota
)

// Has reports whether every bit of f2 is set in f.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// String returns a human-readable list of the known flags.
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	if f.Has(FlagCompressed) {
		if f == FlagCompressed {
			return "compressed"
		}
		return "compressed+reserved"
	}
	return "reserved"
}
