package entry

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/meigma/vault/internal/cbc"
	"github.com/meigma/vault/internal/compress"
	"github.com/meigma/vault/internal/section"
	"github.com/meigma/vault/internal/sizing"
	"github.com/meigma/vault/internal/vaulttype"
	"github.com/meigma/vault/keys"
)

// NameFieldSize is the width of the encrypted filename field.
const NameFieldSize = 256

// MaxNameLen is the longest plaintext filename whose ciphertext length still
// fits the one-byte length field of a directory row.
var MaxNameLen = cbc.MaxPlaintext(math.MaxUint8)

// Env carries what Commit and Read need besides the data window.
type Env struct {
	// Caps is the active keypair.
	Caps keys.Capability

	// Codec compresses payloads before encryption. Nil stores them as is.
	Codec *compress.Codec

	// MaxSize bounds the ciphertext length accepted on read. Zero disables
	// the check.
	MaxSize uint64
}

// Entry is one stored file.
type Entry struct {
	slot    int
	offset  int64
	name    string
	modTime time.Time
	length  uint64
	sealed  bool

	key        []byte
	iv         []byte
	nameIV     []byte
	wrappedKey []byte
	encName    []byte

	plaintext []byte

	// Set by Prepare and released by Commit.
	ciphertext []byte
	crc        uint32
}

// Create returns a pending entry for data with a fresh key and IV.
// The entry keeps its own copy of data until it is committed.
func Create(slot int, name string, modTime time.Time, data []byte) (*Entry, error) {
	if name == "" {
		return nil, vaulttype.ErrInvalidName
	}
	if len(name) > MaxNameLen {
		return nil, fmt.Errorf("%w: name is %d bytes, limit %d", vaulttype.ErrFieldTooLong, len(name), MaxNameLen)
	}
	key, err := cbc.NewKey()
	if err != nil {
		return nil, err
	}
	iv, err := cbc.NewIV()
	if err != nil {
		return nil, err
	}
	return &Entry{
		slot:      slot,
		name:      name,
		modTime:   modTime.Truncate(time.Second),
		key:       key,
		iv:        iv,
		nameIV:    iv,
		plaintext: bytes.Clone(data),
	}, nil
}

// Slot returns the directory slot index.
func (e *Entry) Slot() int { return e.slot }

// Offset returns the absolute payload offset, or 0 while pending.
func (e *Entry) Offset() int64 { return e.offset }

// Committed reports whether the entry has been written to disk.
func (e *Entry) Committed() bool { return e.offset != 0 }

// Name returns the plaintext filename, or vaulttype.Sealed when the entry was
// loaded without private capability.
func (e *Entry) Name() string { return e.name }

// Sealed reports whether the key and filename are unavailable.
func (e *Entry) Sealed() bool { return e.sealed }

// ModTime returns the stored modification time.
func (e *Entry) ModTime() time.Time { return e.modTime }

// Length returns the ciphertext length, or 0 while pending.
func (e *Entry) Length() uint64 { return e.length }

// PendingSize returns the plaintext size held by a pending entry.
func (e *Entry) PendingSize() int { return len(e.plaintext) }

// Extent returns the bytes the entry occupies in the data section.
func (e *Entry) Extent() uint64 {
	return DescriptorSize + e.length
}

// Prepared reports whether Prepare has run on a pending entry.
func (e *Entry) Prepared() bool { return e.ciphertext != nil }

// Prepare compresses and encrypts a pending entry and wraps its key without
// touching the file. It is safe to call Prepare on distinct entries
// concurrently. Calling it again is a no-op.
func (e *Entry) Prepare(env Env) error {
	if e.Committed() || e.Prepared() {
		return nil
	}
	if env.Caps == nil || !env.Caps.HasPublic() {
		return keys.ErrNoPublicKey
	}

	plain := e.plaintext
	if env.Codec != nil {
		packed, err := env.Codec.Compress(plain)
		if err != nil {
			return err
		}
		plain = packed
	}

	encName, err := cbc.Encrypt(e.key, e.nameIV, []byte(e.name))
	if err != nil {
		return fmt.Errorf("encrypt name: %w", err)
	}
	if len(encName) > math.MaxUint8 {
		return fmt.Errorf("%w: encrypted name is %d bytes", vaulttype.ErrFieldTooLong, len(encName))
	}
	ciphertext, err := cbc.Encrypt(e.key, e.iv, plain)
	if err != nil {
		return fmt.Errorf("encrypt payload: %w", err)
	}
	wrapped, err := env.Caps.PublicEncrypt(e.key)
	if err != nil {
		return err
	}

	e.wrappedKey = wrapped
	e.encName = encName
	e.ciphertext = ciphertext
	e.crc = checksum(ciphertext)
	e.plaintext = nil
	return nil
}

// Commit writes the entry's local descriptor and ciphertext at the cursor of
// w, which must be a data section window. It runs Prepare first if needed.
// The wrapped key is produced once and reused by Record.
func (e *Entry) Commit(w *section.Window, env Env) error {
	if e.Committed() {
		return nil
	}
	if err := e.Prepare(env); err != nil {
		return err
	}

	offset := w.Section().Start + w.Pos()
	d := descriptor{
		wrappedKey: e.wrappedKey,
		length:     uint64(len(e.ciphertext)),
		mtime:      unixSeconds(e.modTime),
		iv:         e.iv,
		crc:        e.crc,
	}
	if err := d.write(w); err != nil {
		return err
	}
	if err := w.Write(e.ciphertext); err != nil {
		return err
	}

	e.offset = offset
	e.length = d.length
	e.ciphertext = nil
	return nil
}

// Ciphertext reads and verifies the entry's local descriptor and returns its
// ciphertext. w must be a data section window. No key material is needed.
func (e *Entry) Ciphertext(w *section.Window, env Env) ([]byte, error) {
	if !e.Committed() {
		return nil, vaulttype.ErrNotCommitted
	}
	if env.MaxSize != 0 && e.length > env.MaxSize {
		return nil, fmt.Errorf("%w: entry is %d bytes, limit %d", vaulttype.ErrSizeOverflow, e.length, env.MaxSize)
	}
	n, err := sizing.ToInt(e.length, vaulttype.ErrSizeOverflow)
	if err != nil {
		return nil, err
	}
	if err := w.Seek(e.offset - w.Section().Start); err != nil {
		return nil, err
	}
	d, err := readDescriptor(w)
	if err != nil {
		return nil, err
	}
	if d.length != e.length {
		return nil, fmt.Errorf("%w: descriptor length %d, directory length %d",
			vaulttype.ErrDescriptorMismatch, d.length, e.length)
	}
	ciphertext, err := w.Read(n)
	if err != nil {
		return nil, err
	}
	if got := checksum(ciphertext); got != d.crc {
		return nil, fmt.Errorf("%w: slot %d", vaulttype.ErrChecksumMismatch, e.slot)
	}
	return ciphertext, nil
}

// Read returns the entry's plaintext. It requires private capability.
func (e *Entry) Read(w *section.Window, env Env) ([]byte, error) {
	if env.Caps == nil || !env.Caps.HasPrivate() {
		return nil, keys.ErrNoPrivateKey
	}
	ciphertext, err := e.Ciphertext(w, env)
	if err != nil {
		return nil, err
	}
	key, err := e.unwrap(env.Caps)
	if err != nil {
		return nil, err
	}
	plain, err := cbc.Decrypt(key, e.iv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypt slot %d: %w", e.slot, err)
	}
	if env.Codec != nil {
		return env.Codec.Decompress(plain)
	}
	return plain, nil
}

func (e *Entry) unwrap(caps keys.Capability) ([]byte, error) {
	if e.key != nil {
		return e.key, nil
	}
	key, err := caps.PrivateDecrypt(e.wrappedKey)
	if err != nil {
		return nil, err
	}
	if len(key) != cbc.KeySize {
		return nil, fmt.Errorf("%w: unwrapped key is %d bytes", vaulttype.ErrCorruptRow, len(key))
	}
	e.key = key
	return key, nil
}

func unixSeconds(t time.Time) uint64 {
	sec := t.Unix()
	if sec < 0 {
		return 0
	}
	return uint64(sec)
}

func fromUnixSeconds(sec uint64) time.Time {
	if sec > math.MaxInt64 {
		sec = math.MaxInt64
	}
	return time.Unix(int64(sec), 0) //nolint:gosec // clamped above
}
