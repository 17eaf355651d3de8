package meta

import (
	"fmt"

	"github.com/meigma/vault/internal/cbc"
	"github.com/meigma/vault/internal/section"
	"github.com/meigma/vault/internal/vaulttype"
)

// readRow reads row i at the cursor. ok is false for the empty row that ends
// the table.
func (t *Table) readRow(w *section.Window, i int) (Row, bool, error) {
	if err := w.Seek(headerSize + int64(i)*RowSize); err != nil {
		return Row{}, false, err
	}
	keyLen, err := w.ReadUint8()
	if err != nil {
		return Row{}, false, err
	}
	if keyLen == 0 {
		return Row{}, false, nil
	}
	valueLen, err := w.ReadUint8()
	if err != nil {
		return Row{}, false, err
	}
	enc, err := w.ReadUint8()
	if err != nil {
		return Row{}, false, err
	}
	key, err := w.Read(KeyFieldSize)
	if err != nil {
		return Row{}, false, err
	}
	value, err := w.Read(ValueFieldSize)
	if err != nil {
		return Row{}, false, err
	}
	if int(keyLen) > KeyFieldSize || int(valueLen) > ValueFieldSize {
		return Row{}, false, fmt.Errorf("%w: metadata row %d lengths %d/%d", vaulttype.ErrCorruptRow, i, keyLen, valueLen)
	}
	key, value = key[:keyLen], value[:valueLen]

	row := Row{Encrypted: enc != 0}
	switch {
	case !row.Encrypted:
		row.Key, row.Value = string(key), string(value)
	case t.key == nil:
		row.Key, row.Value, row.Sealed = vaulttype.Sealed, vaulttype.Sealed, true
	default:
		pk, err := cbc.Decrypt(t.key, t.iv, key)
		if err != nil {
			return Row{}, false, fmt.Errorf("%w: metadata row %d key: %w", vaulttype.ErrCorruptRow, i, err)
		}
		pv, err := cbc.Decrypt(t.key, t.iv, value)
		if err != nil {
			return Row{}, false, fmt.Errorf("%w: metadata row %d value: %w", vaulttype.ErrCorruptRow, i, err)
		}
		row.Key, row.Value = string(pk), string(pv)
	}
	return row, true, nil
}

// writeRow writes r at the cursor, encrypting it under the shared key when
// needed.
func (t *Table) writeRow(w *section.Window, r Row) error {
	if r.Sealed {
		return fmt.Errorf("%w: sealed row cannot be rewritten", vaulttype.ErrInvalidMetadata)
	}
	key, value := []byte(r.Key), []byte(r.Value)
	var enc uint8
	if r.Encrypted {
		var err error
		if key, err = cbc.Encrypt(t.key, t.iv, key); err != nil {
			return err
		}
		if value, err = cbc.Encrypt(t.key, t.iv, value); err != nil {
			return err
		}
		enc = 1
	}
	if err := w.WriteUint8(uint8(len(key))); err != nil { //nolint:gosec // bounded by field width
		return err
	}
	if err := w.WriteUint8(uint8(len(value))); err != nil { //nolint:gosec // bounded by field width
		return err
	}
	if err := w.WriteUint8(enc); err != nil {
		return err
	}
	if err := w.WritePadded("key", key, KeyFieldSize); err != nil {
		return err
	}
	return w.WritePadded("value", value, ValueFieldSize)
}
