// Package meta implements the metadata table: up to twelve key/value rows
// stored beside a wrapped key and IV that every encrypted row shares.
//
// Because encrypted rows share one key and IV, the table is always rewritten
// as a whole.
package meta

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/meigma/vault/internal/cbc"
	"github.com/meigma/vault/internal/section"
	"github.com/meigma/vault/internal/vaulttype"
	"github.com/meigma/vault/keys"
)

// Table layout.
const (
	Capacity       = 12
	KeyFieldSize   = 32
	ValueFieldSize = 64
	RowSize        = 3 + KeyFieldSize + ValueFieldSize

	headerSize = keys.WrappedKeySize + cbc.IVSize
)

// Plaintext limits for encrypted rows.
var (
	MaxEncryptedKeyLen   = cbc.MaxPlaintext(KeyFieldSize)
	MaxEncryptedValueLen = cbc.MaxPlaintext(ValueFieldSize)
)

// Row is one metadata pair.
type Row struct {
	Key       string
	Value     string
	Encrypted bool

	// Sealed is set on encrypted rows loaded without private capability.
	// Key and Value then hold vaulttype.Sealed.
	Sealed bool

	pending bool
}

// Pending reports whether the row has not been written yet.
func (r Row) Pending() bool { return r.pending }

// Table is the in-memory metadata table.
type Table struct {
	rows []Row
	key  []byte
	iv   []byte
	log  *slog.Logger
}

// New returns an empty table.
func New(log *slog.Logger) *Table {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Table{log: log}
}

// Load reads the metadata section of f. An all-zero wrapped key means no
// metadata has been written. The shared key is unwrapped only with private
// capability; without it encrypted rows load sealed.
func Load(f *section.File, caps keys.Capability, log *slog.Logger) (*Table, error) {
	t := New(log)
	size, err := f.Size()
	if err != nil {
		return nil, err
	}
	if size <= section.Metadata.End {
		return t, nil
	}
	err = f.Within(section.Metadata, func(w *section.Window) error {
		wrapped, err := w.Read(keys.WrappedKeySize)
		if err != nil {
			return err
		}
		if isZero(wrapped) {
			return nil
		}
		iv, err := w.Read(cbc.IVSize)
		if err != nil {
			return err
		}
		if caps != nil && caps.HasPrivate() {
			key, err := caps.PrivateDecrypt(wrapped)
			if err != nil {
				return err
			}
			if len(key) != cbc.KeySize {
				return fmt.Errorf("%w: unwrapped key is %d bytes", vaulttype.ErrCorruptRow, len(key))
			}
			t.key, t.iv = key, iv
		}
		for i := range Capacity {
			row, ok, err := t.readRow(w, i)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			t.rows = append(t.rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}
	t.log.Debug("metadata loaded", "rows", len(t.rows), "sealed", t.key == nil && len(t.rows) > 0)
	return t, nil
}

// Rows returns the rows in storage order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Pending returns the number of rows waiting for Commit.
func (t *Table) Pending() int {
	n := 0
	for _, r := range t.rows {
		if r.pending {
			n++
		}
	}
	return n
}

// AddRow appends a pending row. Encrypting under the shared key means
// unwrapping it first, so both public and private capability are required.
func (t *Table) AddRow(caps keys.Capability, key, value string, encrypt bool) error {
	if caps == nil || !caps.HasPublic() {
		return keys.ErrNoPublicKey
	}
	if !caps.HasPrivate() {
		return keys.ErrNoPrivateKey
	}
	if err := validate(key, value, encrypt); err != nil {
		return err
	}
	if len(t.rows) >= Capacity {
		return fmt.Errorf("%w: %d rows", vaulttype.ErrMetadataFull, Capacity)
	}
	if t.key == nil {
		if err := t.newKey(); err != nil {
			return err
		}
	}
	t.rows = append(t.rows, Row{Key: key, Value: value, Encrypted: encrypt, pending: true})
	return nil
}

// Commit rewrites the whole metadata section when any row is pending and
// reports whether it wrote anything.
func (t *Table) Commit(f *section.File, caps keys.Capability) (bool, error) {
	if t.Pending() == 0 {
		return false, nil
	}
	if caps == nil || !caps.HasPublic() {
		return false, keys.ErrNoPublicKey
	}
	wrapped, err := caps.PublicEncrypt(t.key)
	if err != nil {
		return false, err
	}
	err = f.Within(section.Metadata, func(w *section.Window) error {
		if err := w.WritePadded("wrapped_key", wrapped, keys.WrappedKeySize); err != nil {
			return err
		}
		if err := w.WritePadded("iv", t.iv, cbc.IVSize); err != nil {
			return err
		}
		for i := range Capacity {
			if i >= len(t.rows) {
				if err := w.Write(make([]byte, RowSize)); err != nil {
					return err
				}
				continue
			}
			if err := t.writeRow(w, t.rows[i]); err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("commit metadata: %w", err)
	}
	for i := range t.rows {
		t.rows[i].pending = false
	}
	t.log.Debug("metadata committed", "rows", len(t.rows))
	return true, nil
}

func (t *Table) newKey() error {
	key, err := cbc.NewKey()
	if err != nil {
		return err
	}
	iv, err := cbc.NewIV()
	if err != nil {
		return err
	}
	t.key, t.iv = key, iv
	return nil
}

func validate(key, value string, encrypt bool) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", vaulttype.ErrInvalidMetadata)
	}
	maxKey, maxValue := KeyFieldSize, ValueFieldSize
	if encrypt {
		maxKey, maxValue = MaxEncryptedKeyLen, MaxEncryptedValueLen
	}
	if len(key) > maxKey {
		return fmt.Errorf("%w: key is %d bytes, limit %d", vaulttype.ErrFieldTooLong, len(key), maxKey)
	}
	if len(value) > maxValue {
		return fmt.Errorf("%w: value is %d bytes, limit %d", vaulttype.ErrFieldTooLong, len(value), maxValue)
	}
	return nil
}

func isZero(b []byte) bool {
	return len(bytes.Trim(b, "\x00")) == 0
}
