package section

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestWindow_IntegerRoundTrip(t *testing.T) {
	t.Parallel()

	f := newTestFile(t)
	require.NoError(t, f.Within(Data, func(w *Window) error {
		require.NoError(t, w.WriteUint8(0xAB))
		require.NoError(t, w.WriteUint16(0xBEEF))
		require.NoError(t, w.WriteUint32(0xDEADBEEF))
		return w.WriteUint64(3_380_922)
	}))

	require.NoError(t, f.Within(Data, func(w *Window) error {
		u8, err := w.ReadUint8()
		require.NoError(t, err)
		u16, err := w.ReadUint16()
		require.NoError(t, err)
		u32, err := w.ReadUint32()
		require.NoError(t, err)
		u64, err := w.ReadUint64()
		require.NoError(t, err)

		assert.Equal(t, uint8(0xAB), u8)
		assert.Equal(t, uint16(0xBEEF), u16)
		assert.Equal(t, uint32(0xDEADBEEF), u32)
		assert.Equal(t, uint64(3_380_922), u64)
		assert.Equal(t, int64(15), w.Pos())
		return nil
	}))
}

func TestWindow_WriteCrossingEnd(t *testing.T) {
	t.Parallel()

	f := newTestFile(t)
	err := f.Within(Metadata, func(w *Window) error {
		require.NoError(t, w.Seek(Metadata.Len()-4))
		err := w.Write(bytes.Repeat([]byte{0xFF}, 5))
		assert.Equal(t, Metadata.Len()-4, w.Pos(), "cursor must not move")
		return err
	})

	var bErr *BoundsError
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, "write", bErr.Op)
	assert.Equal(t, "metadata", bErr.Section)
	assert.Equal(t, Metadata.End-3, bErr.Offset)
	assert.Equal(t, int64(5), bErr.Length)

	// Nothing reached the allocation table.
	size, err := f.Size()
	require.NoError(t, err)
	assert.Less(t, size, AllocationTable.Start)
}

func TestWindow_WriteUpToEnd(t *testing.T) {
	t.Parallel()

	f := newTestFile(t)
	require.NoError(t, f.Within(Metadata, func(w *Window) error {
		require.NoError(t, w.Seek(Metadata.Len()-4))
		return w.Write([]byte{1, 2, 3, 4})
	}))
}

func TestWindow_ReadCrossingEnd(t *testing.T) {
	t.Parallel()

	f := newTestFile(t)
	err := f.Within(Signature, func(w *Window) error {
		_, err := w.Read(5)
		return err
	})
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestWindow_ReadPastFileEnd(t *testing.T) {
	t.Parallel()

	f := newTestFile(t)
	err := f.Within(Data, func(w *Window) error {
		_, err := w.Read(16)
		return err
	})
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotErrorIs(t, err, ErrOutOfBounds)
}

func TestWindow_SeekOutsideSection(t *testing.T) {
	t.Parallel()

	f := newTestFile(t)
	tests := []struct {
		name string
		sec  Section
		rel  int64
	}{
		{name: "negative", sec: Metadata, rel: -1},
		{name: "past end", sec: Metadata, rel: Metadata.Len()},
		{name: "into data from table", sec: AllocationTable, rel: Data.Start - AllocationTable.Start},
		{name: "before data", sec: Data, rel: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.Within(tt.sec, func(w *Window) error {
				err := w.Seek(tt.rel)
				assert.Equal(t, int64(0), w.Pos())
				return err
			})
			var bErr *BoundsError
			require.ErrorAs(t, err, &bErr)
			assert.Equal(t, "seek", bErr.Op)
			assert.Equal(t, tt.sec.Name, bErr.Section)
		})
	}
}

func TestWindow_FilenameFieldOverflow(t *testing.T) {
	t.Parallel()

	f := newTestFile(t)
	const fieldOffset = 569
	err := f.Within(AllocationTable, func(w *Window) error {
		require.NoError(t, w.Seek(fieldOffset))
		err := w.WritePadded("filename", bytes.Repeat([]byte{0xEE}, 300), 256)
		assert.Equal(t, int64(fieldOffset), w.Pos(), "cursor must not move")
		return err
	})

	var bErr *BoundsError
	require.ErrorAs(t, err, &bErr)
	assert.Equal(t, "allocation_table.filename", bErr.Section)
	assert.Equal(t, int64(256), bErr.End-bErr.Start+1)

	// The file was never extended into the field.
	size, err := f.Size()
	require.NoError(t, err)
	assert.Less(t, size, AllocationTable.Start)
}

func TestWindow_WritePadded(t *testing.T) {
	t.Parallel()

	f := newTestFile(t)
	require.NoError(t, f.Within(Metadata, func(w *Window) error {
		require.NoError(t, w.WritePadded("key", []byte("name"), 32))
		assert.Equal(t, int64(32), w.Pos())
		return w.WriteUint8(0x7F)
	}))

	require.NoError(t, f.Within(Metadata, func(w *Window) error {
		b, err := w.Read(33)
		require.NoError(t, err)
		want := append([]byte("name"), make([]byte, 28)...)
		want = append(want, 0x7F)
		assert.Equal(t, want, b)
		return nil
	}))
}

func TestWindow_Narrow(t *testing.T) {
	t.Parallel()

	f := newTestFile(t)
	require.NoError(t, f.Within(AllocationTable, func(w *Window) error {
		row, err := w.Narrow("slot", 825, 825)
		require.NoError(t, err)
		assert.Equal(t, AllocationTable.Start+825, row.Section().Start)
		assert.Equal(t, AllocationTable.Start+2*825-1, row.Section().End)

		require.NoError(t, row.Seek(824))
		assert.ErrorIs(t, row.Write([]byte{1, 2}), ErrOutOfBounds)
		require.NoError(t, row.Write([]byte{1}))
		assert.Equal(t, int64(0), w.Pos(), "parent cursor is independent")

		_, err = w.Narrow("slot", AllocationTable.Len()-10, 825)
		assert.ErrorIs(t, err, ErrOutOfBounds)
		_, err = w.Narrow("slot", -1, 10)
		assert.ErrorIs(t, err, ErrOutOfBounds)
		return nil
	}))
}

// Writes anywhere in the allocation table never touch the data section, and
// data section writes never reach back into the table.
func TestSectionIsolation(t *testing.T) {
	f := newTestFile(t)

	guard := []byte{0xC0, 0xFF, 0xEE}
	require.NoError(t, f.Within(Data, func(w *Window) error {
		return w.Write(guard)
	}))
	require.NoError(t, f.Within(AllocationTable, func(w *Window) error {
		require.NoError(t, w.Seek(AllocationTable.Len()-1))
		return w.WriteUint8(0x5A)
	}))

	rapid.Check(t, func(rt *rapid.T) {
		tableLen := AllocationTable.Len()
		var off int64
		if rapid.Bool().Draw(rt, "nearEnd") {
			off = tableLen - rapid.Int64Range(1, 8192).Draw(rt, "fromEnd")
		} else {
			off = rapid.Int64Range(0, tableLen-1).Draw(rt, "offset")
		}
		n := rapid.IntRange(1, 9000).Draw(rt, "length")
		payload := bytes.Repeat([]byte{0x11}, n)

		err := f.Within(AllocationTable, func(w *Window) error {
			if err := w.Seek(off); err != nil {
				return err
			}
			return w.Write(payload)
		})
		if off+int64(n) > tableLen {
			if err == nil {
				rt.Fatalf("write of %d bytes at %d crossed the table end", n, off)
			}
		} else if err != nil {
			rt.Fatalf("write of %d bytes at %d failed: %v", n, off, err)
		}

		require.NoError(rt, f.Within(Data, func(w *Window) error {
			got, err := w.Read(len(guard))
			if err != nil {
				return err
			}
			if !bytes.Equal(got, guard) {
				rt.Fatalf("data section changed: %x", got)
			}
			return nil
		}))

		back := rapid.Int64Range(1, 4096).Draw(rt, "back")
		err = f.Within(Data, func(w *Window) error {
			return w.Seek(-back)
		})
		if err == nil {
			rt.Fatalf("data window moved %d bytes before its start", back)
		}
	})
}

// A rejected write never changes the cursor.
func TestBoundsLeaveCursor(t *testing.T) {
	f := newTestFile(t)

	rapid.Check(t, func(rt *rapid.T) {
		start := rapid.Int64Range(0, Metadata.Len()-1).Draw(rt, "start")
		n := rapid.IntRange(0, 2048).Draw(rt, "length")

		_ = f.Within(Metadata, func(w *Window) error {
			require.NoError(rt, w.Seek(start))
			err := w.Write(make([]byte, n))
			fits := start+int64(n) <= Metadata.Len()
			if fits {
				if err != nil {
					rt.Fatalf("write failed: %v", err)
				}
				if w.Pos() != start+int64(n) {
					rt.Fatalf("cursor at %d, want %d", w.Pos(), start+int64(n))
				}
				return nil
			}
			if err == nil {
				rt.Fatalf("write of %d at %d accepted", n, start)
			}
			if w.Pos() != start {
				rt.Fatalf("cursor moved to %d after rejected write", w.Pos())
			}
			return nil
		})
	})
}
