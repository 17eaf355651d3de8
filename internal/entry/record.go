package entry

import (
	"fmt"

	"github.com/meigma/vault/internal/cbc"
	"github.com/meigma/vault/internal/sizing"
	"github.com/meigma/vault/internal/vaulttype"
	"github.com/meigma/vault/keys"
)

// Record holds the fields of a directory row.
type Record struct {
	Offset     uint64
	WrappedKey []byte
	NameIV     []byte
	DataIV     []byte
	Length     uint64
	ModTime    uint64
	Name       []byte
}

// Record returns the directory row for a committed entry.
func (e *Entry) Record() (Record, error) {
	if !e.Committed() {
		return Record{}, vaulttype.ErrNotCommitted
	}
	return Record{
		Offset:     uint64(e.offset), //nolint:gosec // committed offsets are positive
		WrappedKey: e.wrappedKey,
		NameIV:     e.nameIV,
		DataIV:     e.iv,
		Length:     e.length,
		ModTime:    unixSeconds(e.modTime),
		Name:       e.encName,
	}, nil
}

// FromRecord rebuilds a committed entry from its directory row. With private
// capability the key is unwrapped and the filename decrypted; otherwise the
// entry is sealed and its name is vaulttype.Sealed.
func FromRecord(slot int, r Record, caps keys.Capability) (*Entry, error) {
	offset, err := sizing.ToInt64(r.Offset, vaulttype.ErrCorruptRow)
	if err != nil {
		return nil, err
	}
	if offset == 0 {
		return nil, fmt.Errorf("%w: slot %d is empty", vaulttype.ErrCorruptRow, slot)
	}
	e := &Entry{
		slot:       slot,
		offset:     offset,
		modTime:    fromUnixSeconds(r.ModTime),
		length:     r.Length,
		wrappedKey: r.WrappedKey,
		nameIV:     r.NameIV,
		iv:         r.DataIV,
		encName:    r.Name,
	}
	if caps == nil || !caps.HasPrivate() {
		e.name = vaulttype.Sealed
		e.sealed = true
		return e, nil
	}
	key, err := e.unwrap(caps)
	if err != nil {
		return nil, fmt.Errorf("slot %d: %w", slot, err)
	}
	name, err := cbc.Decrypt(key, r.NameIV, r.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: slot %d name: %w", vaulttype.ErrCorruptRow, slot, err)
	}
	e.name = string(name)
	return e, nil
}
