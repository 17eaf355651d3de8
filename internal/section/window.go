package section

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ByteOrder is the wire byte order for every fixed-width integer.
var ByteOrder = binary.LittleEndian

// Window is the scoped guard handed out by [File.Within].
//
// It tracks its own cursor and bounds; narrowed child windows share the
// guard of the window they were derived from.
type Window struct {
	file     *File
	sec      Section
	pos      int64
	root     *Window
	released bool
}

// Section returns the bounds of the window.
func (w *Window) Section() Section {
	return w.sec
}

// Pos returns the cursor relative to the window start.
func (w *Window) Pos() int64 {
	return w.pos - w.sec.Start
}

// Seek moves the cursor to start+rel.
func (w *Window) Seek(rel int64) error {
	if err := w.check("seek", w.sec.Start+rel, 0); err != nil {
		return err
	}
	abs := w.sec.Start + rel
	if rel < 0 || !w.sec.Contains(abs) {
		return w.boundsErr("seek", abs, 0)
	}
	w.pos = abs
	return nil
}

// Narrow returns a child window covering [rel, rel+length) of w, named name.
// The child's cursor starts at its own start; w's cursor is not moved.
func (w *Window) Narrow(name string, rel, length int64) (*Window, error) {
	abs := w.sec.Start + rel
	if err := w.check("narrow", abs, length); err != nil {
		return nil, err
	}
	if rel < 0 || length <= 0 || !w.sec.fits(abs, length) {
		return nil, w.boundsErr("narrow", abs, length)
	}
	return &Window{
		file: w.file,
		sec:  Section{Name: w.sec.Name + "." + name, Start: abs, End: abs + length - 1},
		pos:  abs,
		root: w.root,
	}, nil
}

// Read reads exactly n bytes at the cursor and advances it.
// Reading past the end of the underlying file fails with io.ErrUnexpectedEOF.
func (w *Window) Read(n int) ([]byte, error) {
	if err := w.check("read", w.pos, int64(n)); err != nil {
		return nil, err
	}
	if !w.sec.fits(w.pos, int64(n)) {
		return nil, w.boundsErr("read", w.pos, int64(n))
	}
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	read, err := w.file.h.ReadAt(buf, w.pos)
	if read < n {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read %s at %d: %w", w.sec.Name, w.pos, err)
	}
	w.pos += int64(n)
	return buf, nil
}

// Write writes b at the cursor and advances it. Nothing is written when b
// would cross the window end.
func (w *Window) Write(b []byte) error {
	n := int64(len(b))
	if err := w.check("write", w.pos, n); err != nil {
		return err
	}
	if !w.sec.fits(w.pos, n) {
		return w.boundsErr("write", w.pos, n)
	}
	if n == 0 {
		return nil
	}
	if _, err := w.file.h.WriteAt(b, w.pos); err != nil {
		return fmt.Errorf("write %s at %d: %w", w.sec.Name, w.pos, err)
	}
	w.pos += n
	return nil
}

// WritePadded writes b into a field of width bytes at the cursor, filling the
// remainder with zeros. A b longer than width fails with a BoundsError and
// leaves the cursor unchanged.
func (w *Window) WritePadded(name string, b []byte, width int) error {
	field, err := w.Narrow(name, w.Pos(), int64(width))
	if err != nil {
		return err
	}
	if err := field.Write(b); err != nil {
		return err
	}
	if err := field.Write(make([]byte, width-len(b))); err != nil {
		return err
	}
	w.pos += int64(width)
	return nil
}

// Skip advances the cursor by n bytes without reading.
func (w *Window) Skip(n int64) error {
	return w.Seek(w.Pos() + n)
}

// ReadUint8 reads one byte.
func (w *Window) ReadUint8() (uint8, error) {
	b, err := w.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadUint16 reads a little-endian uint16.
func (w *Window) ReadUint16() (uint16, error) {
	b, err := w.Read(2)
	if err != nil {
		return 0, err
	}
	return ByteOrder.Uint16(b), nil
}

// ReadUint32 reads a little-endian uint32.
func (w *Window) ReadUint32() (uint32, error) {
	b, err := w.Read(4)
	if err != nil {
		return 0, err
	}
	return ByteOrder.Uint32(b), nil
}

// ReadUint64 reads a little-endian uint64.
func (w *Window) ReadUint64() (uint64, error) {
	b, err := w.Read(8)
	if err != nil {
		return 0, err
	}
	return ByteOrder.Uint64(b), nil
}

// WriteUint8 writes one byte.
func (w *Window) WriteUint8(v uint8) error {
	return w.Write([]byte{v})
}

// WriteUint16 writes a little-endian uint16.
func (w *Window) WriteUint16(v uint16) error {
	return w.Write(ByteOrder.AppendUint16(nil, v))
}

// WriteUint32 writes a little-endian uint32.
func (w *Window) WriteUint32(v uint32) error {
	return w.Write(ByteOrder.AppendUint32(nil, v))
}

// WriteUint64 writes a little-endian uint64.
func (w *Window) WriteUint64(v uint64) error {
	return w.Write(ByteOrder.AppendUint64(nil, v))
}

// check rejects any operation once the guard has been released.
func (w *Window) check(op string, abs, n int64) error {
	if w.file.closed {
		return ErrClosed
	}
	if w.root.released || w.file.active != w.root {
		return &BoundsError{Op: op, Offset: abs, Length: n}
	}
	return nil
}

func (w *Window) boundsErr(op string, abs, n int64) error {
	return &BoundsError{
		Op:      op,
		Section: w.sec.Name,
		Offset:  abs,
		Length:  n,
		Start:   w.sec.Start,
		End:     w.sec.End,
	}
}
