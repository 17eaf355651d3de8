package alloc

import (
	"fmt"
	"math"

	"github.com/meigma/vault/internal/cbc"
	"github.com/meigma/vault/internal/entry"
	"github.com/meigma/vault/internal/section"
	"github.com/meigma/vault/internal/vaulttype"
	"github.com/meigma/vault/keys"
)

func rowStart(slot int) int64 {
	return int64(slot) * RowSize
}

func readRow(w *section.Window, slot int) (entry.Record, error) {
	var r entry.Record
	if err := w.Seek(rowStart(slot)); err != nil {
		return r, err
	}
	var err error
	if r.Offset, err = w.ReadUint64(); err != nil {
		return r, err
	}
	if r.Offset == 0 {
		return r, nil
	}
	if r.WrappedKey, err = w.Read(keys.WrappedKeySize); err != nil {
		return r, err
	}
	if r.NameIV, err = w.Read(cbc.IVSize); err != nil {
		return r, err
	}
	if r.DataIV, err = w.Read(cbc.IVSize); err != nil {
		return r, err
	}
	if r.Length, err = w.ReadUint64(); err != nil {
		return r, err
	}
	if r.ModTime, err = w.ReadUint64(); err != nil {
		return r, err
	}
	nameLen, err := w.ReadUint8()
	if err != nil {
		return r, err
	}
	name, err := w.Read(entry.NameFieldSize)
	if err != nil {
		return r, err
	}
	r.Name = name[:nameLen]
	return r, nil
}

func writeRow(w *section.Window, slot int, r entry.Record) error {
	if len(r.Name) > math.MaxUint8 {
		return fmt.Errorf("%w: encrypted name is %d bytes", vaulttype.ErrFieldTooLong, len(r.Name))
	}
	// The offset goes last so a torn row still reads as empty.
	if err := w.Seek(rowStart(slot) + 8); err != nil {
		return err
	}
	if err := w.WritePadded("wrapped_key", r.WrappedKey, keys.WrappedKeySize); err != nil {
		return err
	}
	if err := w.WritePadded("name_iv", r.NameIV, cbc.IVSize); err != nil {
		return err
	}
	if err := w.WritePadded("data_iv", r.DataIV, cbc.IVSize); err != nil {
		return err
	}
	if err := w.WriteUint64(r.Length); err != nil {
		return err
	}
	if err := w.WriteUint64(r.ModTime); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(len(r.Name))); err != nil { //nolint:gosec // checked above
		return err
	}
	if err := w.WritePadded("filename", r.Name, entry.NameFieldSize); err != nil {
		return err
	}
	if err := w.Seek(rowStart(slot)); err != nil {
		return err
	}
	return w.WriteUint64(r.Offset)
}
