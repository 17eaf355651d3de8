package section

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/meigma/vault/internal/vaulttype"
)

// Handle is the raw, byte-addressable file a File transacts through.
// *os.File satisfies it.
type Handle interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
	Stat() (fs.FileInfo, error)
}

// File wraps a Handle with section-bounded access.
//
// File is not safe for concurrent use.
type File struct {
	h      Handle
	name   string
	active *Window
	closed bool
}

// Open opens the vault file at path, creating it when absent.
//
// An existing non-empty file must start with [Magic]; otherwise Open fails
// with vaulttype.ErrSignatureMismatch.
func Open(path string) (*File, error) {
	h, err := os.OpenFile(path, os.O_RDWR, 0) //nolint:gosec // User-provided path is intentional
	if errors.Is(err, fs.ErrNotExist) {
		h, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600) //nolint:gosec // User-provided path is intentional
	}
	if err != nil {
		return nil, fmt.Errorf("open vault file: %w", err)
	}
	f, err := New(h, path)
	if err != nil {
		h.Close()
		return nil, err
	}
	return f, nil
}

// New wraps an already opened handle and verifies its signature if it is
// non-empty.
func New(h Handle, name string) (*File, error) {
	f := &File{h: h, name: name}
	empty, err := f.IsEmpty()
	if err != nil {
		return nil, err
	}
	if empty {
		return f, nil
	}
	if err := f.verifySignature(); err != nil {
		return nil, err
	}
	return f, nil
}

// Name returns the name the file was opened with.
func (f *File) Name() string {
	return f.name
}

// Within runs fn with a Window bounded to s. The cursor starts at the section
// start. The Window is released when fn returns, on every path.
func (f *File) Within(s Section, fn func(w *Window) error) error {
	if f.closed {
		return ErrClosed
	}
	if f.active != nil {
		return fmt.Errorf("%w: %s while in %s", ErrSectionActive, s.Name, f.active.sec.Name)
	}
	w := &Window{file: f, sec: s, pos: s.Start}
	w.root = w
	f.active = w
	defer func() {
		w.released = true
		f.active = nil
	}()
	return fn(w)
}

// Size returns the raw file size.
func (f *File) Size() (int64, error) {
	if f.closed {
		return 0, ErrClosed
	}
	info, err := f.h.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat vault file: %w", err)
	}
	return info.Size(), nil
}

// IsEmpty reports whether the file has no bytes.
func (f *File) IsEmpty() (bool, error) {
	size, err := f.Size()
	if err != nil {
		return false, err
	}
	return size == 0, nil
}

// Sync flushes the file to stable storage when the handle supports it.
func (f *File) Sync() error {
	if f.closed {
		return ErrClosed
	}
	if s, ok := f.h.(interface{ Sync() error }); ok {
		return s.Sync()
	}
	return nil
}

// Close closes the underlying handle. Closing twice is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.h.Close()
}

func (f *File) verifySignature() error {
	size, err := f.Size()
	if err != nil {
		return err
	}
	if size < Signature.Len() {
		return vaulttype.ErrSignatureMismatch
	}
	return f.Within(Signature, func(w *Window) error {
		sig, err := w.Read(len(Magic))
		if err != nil {
			return err
		}
		if !bytes.Equal(sig, Magic[:]) {
			return vaulttype.ErrSignatureMismatch
		}
		return nil
	})
}
