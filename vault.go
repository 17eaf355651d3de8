package vault

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/vault/internal/alloc"
	"github.com/meigma/vault/internal/compress"
	"github.com/meigma/vault/internal/entry"
	"github.com/meigma/vault/internal/meta"
	"github.com/meigma/vault/internal/platform"
	"github.com/meigma/vault/internal/section"
	"github.com/meigma/vault/internal/sizing"
	"github.com/meigma/vault/keys"
)

// DefaultMaxFileSize is the default plaintext limit for a single entry.
const DefaultMaxFileSize = 256 << 20

// Vault is an open vault file.
type Vault struct {
	file    *section.File
	caps    keys.Capability
	version uint8
	flags   Flags
	alloc   *alloc.Table
	meta    *meta.Table
	codec   *compress.Codec

	maxFileSize      uint64
	maxDecoderMemory uint64
	workers          int
	progress         ProgressFunc
	logger           *slog.Logger
}

// log returns the logger, falling back to a discard logger if nil.
func (v *Vault) log() *slog.Logger {
	if v.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return v.logger
}

// Open opens the vault at path, creating an empty vault file when it does not
// exist. caps decides what the caller may do: public capability allows Add and
// Save, private capability allows reading names, extraction, and metadata
// edits. An existing zero-length file opens as an empty vault.
func Open(path string, caps keys.Capability, opts ...Option) (*Vault, error) {
	v := &Vault{
		caps:             caps,
		maxFileSize:      DefaultMaxFileSize,
		maxDecoderMemory: compress.DefaultMaxDecoderMemory,
	}
	for _, opt := range opts {
		opt(v)
	}

	f, err := section.Open(path)
	if err != nil {
		return nil, err
	}
	v.file = f
	if err := v.load(); err != nil {
		f.Close()
		return nil, err
	}
	v.codec = compress.New(v.maxDecoderMemory)
	v.log().Info("vault opened",
		"path", path,
		"version", v.version,
		"flags", v.flags.String(),
		"entries", v.alloc.Len(),
		"public", caps != nil && caps.HasPublic(),
		"private", caps != nil && caps.HasPrivate())
	return v, nil
}

func (v *Vault) load() error {
	size, err := v.file.Size()
	if err != nil {
		return err
	}
	if size > section.Flags.End {
		if err := v.readHeader(); err != nil {
			return err
		}
	}
	if v.meta, err = meta.Load(v.file, v.caps, v.log()); err != nil {
		return err
	}
	if v.alloc, err = alloc.Load(v.file, v.caps, v.log()); err != nil {
		return err
	}
	v.alloc.SetWorkers(v.workers)
	return nil
}

func (v *Vault) readHeader() error {
	err := v.file.Within(section.Version, func(w *section.Window) error {
		var err error
		v.version, err = w.ReadUint8()
		return err
	})
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	if v.version > FormatVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, v.version)
	}
	err = v.file.Within(section.Flags, func(w *section.Window) error {
		b, err := w.ReadUint8()
		v.flags = Flags(b)
		return err
	})
	if err != nil {
		return fmt.Errorf("read flags: %w", err)
	}
	return nil
}

func (v *Vault) writeHeader() error {
	if err := v.file.Within(section.Signature, func(w *section.Window) error {
		return w.Write(section.Magic[:])
	}); err != nil {
		return err
	}
	if err := v.file.Within(section.Version, func(w *section.Window) error {
		return w.WriteUint8(FormatVersion)
	}); err != nil {
		return err
	}
	if err := v.file.Within(section.Flags, func(w *section.Window) error {
		return w.WriteUint8(uint8(v.flags))
	}); err != nil {
		return err
	}
	v.version = FormatVersion
	return nil
}

// Path returns the vault file path.
func (v *Vault) Path() string {
	return v.file.Name()
}

// Version returns the format version read from disk, or FormatVersion once the
// vault has been saved. A new vault reports 0 until its first Save.
func (v *Vault) Version() uint8 {
	return v.version
}

// Flags returns the header flags.
func (v *Vault) Flags() Flags {
	return v.flags
}

// SetFlags replaces the header flags. Flags decide how payloads are encoded,
// so they can only change while no entry has been committed. The new value is
// written by the next Save.
func (v *Vault) SetFlags(flags Flags) error {
	if flags == v.flags {
		return nil
	}
	if n := v.alloc.Committed(); n > 0 {
		return fmt.Errorf("%w: %d committed entries", ErrFlagsLocked, n)
	}
	v.flags = flags
	return nil
}

// Add reads the regular file at path and appends it as a pending entry named
// after the file's base name. Symbolic links are rejected with ErrSymlink.
func (v *Vault) Add(path string) (Entry, error) {
	f, err := platform.OpenNoFollow(path)
	if err != nil {
		return Entry{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Entry{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return Entry{}, &fs.PathError{Op: "add", Path: path, Err: fs.ErrInvalid}
	}
	data, err := sizing.ReadAllWithLimit(f, v.maxFileSize, ErrSizeOverflow)
	if err != nil {
		return Entry{}, fmt.Errorf("read %s: %w", path, err)
	}
	return v.AddBytes(filepath.Base(path), info.ModTime(), data)
}

// AddBytes appends data as a pending entry. It requires public capability.
// The name must be 1 to MaxNameLen bytes.
func (v *Vault) AddBytes(name string, modTime time.Time, data []byte) (Entry, error) {
	if v.maxFileSize != 0 && uint64(len(data)) > v.maxFileSize {
		return Entry{}, fmt.Errorf("%w: %d bytes, limit %d", ErrSizeOverflow, len(data), v.maxFileSize)
	}
	e, err := v.alloc.Add(v.caps, name, modTime, data)
	if err != nil {
		return Entry{}, err
	}
	return viewOf(e), nil
}

// List returns every entry, pending ones included, in slot order.
func (v *Vault) List() []Entry {
	entries := v.alloc.Entries()
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, viewOf(e))
	}
	return out
}

// Lookup returns the first entry named name. Sealed entries never match.
func (v *Vault) Lookup(name string) (Entry, bool) {
	for _, e := range v.alloc.Entries() {
		if !e.Sealed() && e.Name() == name {
			return viewOf(e), true
		}
	}
	return Entry{}, false
}

// Metadata returns the metadata rows in storage order.
func (v *Vault) Metadata() []MetadataRow {
	return v.meta.Rows()
}

// AddMetadata appends a pending metadata row. It requires both public and
// private capability. Keys must be non-empty; plaintext rows hold up to 32
// key bytes and 64 value bytes, encrypted rows up to 31 and 63.
func (v *Vault) AddMetadata(key, value string, encrypt bool) error {
	return v.meta.AddRow(v.caps, key, value, encrypt)
}

// Save writes the header, any pending metadata rows, and any pending entries.
// Committed entries are never rewritten.
func (v *Vault) Save() error {
	if err := v.writeHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	wroteMeta, err := v.meta.Commit(v.file, v.caps)
	if err != nil {
		return err
	}
	n, err := v.alloc.Commit(v.file, v.env(), v.progress)
	if err != nil {
		return err
	}
	if err := v.file.Sync(); err != nil {
		return fmt.Errorf("sync vault: %w", err)
	}
	v.log().Info("vault saved", "path", v.Path(), "entries", n, "metadata", wroteMeta)
	return nil
}

// ReadEntry decrypts e and returns its plaintext. It requires private
// capability.
func (v *Vault) ReadEntry(e Entry) ([]byte, error) {
	ae, err := v.lookupSlot(e)
	if err != nil {
		return nil, err
	}
	var out []byte
	err = v.file.Within(section.Data, func(w *section.Window) error {
		var err error
		out, err = ae.Read(w, v.env())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read slot %d: %w", e.Slot, err)
	}
	return out, nil
}

// Digest returns the sha256 digest of e's ciphertext. It needs no key
// material, so write-only holders can use it to compare entries.
func (v *Vault) Digest(e Entry) (digest.Digest, error) {
	ae, err := v.lookupSlot(e)
	if err != nil {
		return "", err
	}
	var dgst digest.Digest
	err = v.file.Within(section.Data, func(w *section.Window) error {
		ct, err := ae.Ciphertext(w, v.env())
		if err != nil {
			return err
		}
		dgst = digest.FromBytes(ct)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("digest slot %d: %w", e.Slot, err)
	}
	return dgst, nil
}

// Close closes the vault file. Pending entries and metadata rows that were
// not saved are discarded.
func (v *Vault) Close() error {
	v.codec.Close()
	return v.file.Close()
}

func (v *Vault) env() entry.Env {
	env := entry.Env{Caps: v.caps, MaxSize: v.maxCiphertext()}
	if v.flags.Has(FlagCompressed) {
		env.Codec = v.codec
	}
	return env
}

// maxCiphertext bounds ciphertexts read from disk, leaving room for padding
// and zstd framing.
func (v *Vault) maxCiphertext() uint64 {
	if v.maxFileSize == 0 {
		return 0
	}
	limit, ok := sizing.AddUint64(v.maxFileSize, v.maxFileSize>>7+4096)
	if !ok {
		return 0
	}
	return limit
}

func (v *Vault) lookupSlot(e Entry) (*entry.Entry, error) {
	entries := v.alloc.Entries()
	if e.Slot < 0 || e.Slot >= len(entries) {
		return nil, fmt.Errorf("%w: slot %d", ErrNoEntry, e.Slot)
	}
	return entries[e.Slot], nil
}
