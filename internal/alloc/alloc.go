// Package alloc implements the allocation table: the fixed-capacity directory
// that maps entries to slots and payload offsets.
//
// The table is dense. Entries occupy slots 0..n-1 in the order they were
// added, and a row whose payload offset is zero ends the table. Commit only
// ever appends: committed rows and payloads are never rewritten.
package alloc

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/meigma/vault/internal/cbc"
	"github.com/meigma/vault/internal/entry"
	"github.com/meigma/vault/internal/section"
	"github.com/meigma/vault/internal/sizing"
	"github.com/meigma/vault/internal/vaulttype"
	"github.com/meigma/vault/keys"
)

// Table layout.
const (
	// Capacity is the number of directory slots.
	Capacity = 4096

	// RowSize is the width of one directory row.
	RowSize = 8 + keys.WrappedKeySize + cbc.IVSize + cbc.IVSize + 8 + 8 + 1 + entry.NameFieldSize
)

// Table is the in-memory allocation table.
type Table struct {
	entries []*entry.Entry
	workers int
	log     *slog.Logger
}

// New returns an empty table.
func New(log *slog.Logger) *Table {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Table{log: log}
}

// Load scans the directory of f. Scanning stops at the first empty row or at
// the first row that lies past the end of the file.
func Load(f *section.File, caps keys.Capability, log *slog.Logger) (*Table, error) {
	t := New(log)
	size, err := f.Size()
	if err != nil {
		return nil, err
	}
	err = f.Within(section.AllocationTable, func(w *section.Window) error {
		for slot := range Capacity {
			rowEnd := section.AllocationTable.Start + int64(slot+1)*RowSize
			if rowEnd > size {
				return nil
			}
			rec, err := readRow(w, slot)
			if err != nil {
				return err
			}
			if rec.Offset == 0 {
				return nil
			}
			e, err := entry.FromRecord(slot, rec, caps)
			if err != nil {
				return err
			}
			t.entries = append(t.entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load allocation table: %w", err)
	}
	t.log.Debug("allocation table loaded", "entries", len(t.entries))
	return t, nil
}

// Entries returns the entries in slot order.
func (t *Table) Entries() []*entry.Entry {
	out := make([]*entry.Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries, pending ones included.
func (t *Table) Len() int {
	return len(t.entries)
}

// Committed returns the number of entries already on disk.
func (t *Table) Committed() int {
	n := 0
	for _, e := range t.entries {
		if e.Committed() {
			n++
		}
	}
	return n
}

// Pending returns the number of entries waiting for Commit.
func (t *Table) Pending() int {
	return len(t.entries) - t.Committed()
}

// SetWorkers sets how many entries Commit encrypts in parallel.
// Values < 0 force serial processing. Zero uses GOMAXPROCS.
func (t *Table) SetWorkers(n int) {
	t.workers = n
}

// Add appends a pending entry. Nothing is written until Commit.
func (t *Table) Add(caps keys.Capability, name string, modTime time.Time, data []byte) (*entry.Entry, error) {
	if caps == nil || !caps.HasPublic() {
		return nil, keys.ErrNoPublicKey
	}
	if len(t.entries) >= Capacity {
		return nil, fmt.Errorf("%w: %d entries", vaulttype.ErrTableFull, Capacity)
	}
	e, err := entry.Create(len(t.entries), name, modTime, data)
	if err != nil {
		return nil, err
	}
	t.entries = append(t.entries, e)
	return e, nil
}

// Commit writes every pending entry in slot order. Pending entries are
// encrypted in parallel first; then each payload is appended after the
// previous entry's payload and its row is written. It returns the number of
// entries written.
func (t *Table) Commit(f *section.File, env entry.Env, progress vaulttype.ProgressFunc) (int, error) {
	if err := reserve(f); err != nil {
		return 0, err
	}

	var pending []*entry.Entry
	for _, e := range t.entries {
		if !e.Committed() {
			pending = append(pending, e)
		}
	}
	if err := prepare(pending, env, t.workers, progress); err != nil {
		return 0, err
	}

	next := section.Data.Start
	written := 0
	for _, e := range t.entries {
		if e.Committed() {
			end, err := payloadEnd(e)
			if err != nil {
				return written, err
			}
			next = end
			t.log.Debug("skipping committed entry", "slot", e.Slot())
			continue
		}
		err := f.Within(section.Data, func(w *section.Window) error {
			if err := w.Seek(next - section.Data.Start); err != nil {
				return err
			}
			return e.Commit(w, env)
		})
		if err != nil {
			return written, fmt.Errorf("commit slot %d payload: %w", e.Slot(), err)
		}
		rec, err := e.Record()
		if err != nil {
			return written, err
		}
		err = f.Within(section.AllocationTable, func(w *section.Window) error {
			return writeRow(w, e.Slot(), rec)
		})
		if err != nil {
			return written, fmt.Errorf("commit slot %d row: %w", e.Slot(), err)
		}
		written++
		if next, err = payloadEnd(e); err != nil {
			return written, err
		}
		t.log.Debug("entry committed", "slot", e.Slot(), "offset", e.Offset(), "length", e.Length())
		emit(progress, vaulttype.StageCommitting, e)
	}
	return written, nil
}

// payloadEnd returns the absolute offset just past e's descriptor and
// ciphertext. Lengths read from a damaged row can overflow it.
func payloadEnd(e *entry.Entry) (int64, error) {
	extent, ok := sizing.AddUint64(entry.DescriptorSize, e.Length())
	if !ok {
		return 0, fmt.Errorf("%w: slot %d length %d", vaulttype.ErrCorruptRow, e.Slot(), e.Length())
	}
	n, err := sizing.ToInt64(extent, vaulttype.ErrCorruptRow)
	if err != nil {
		return 0, fmt.Errorf("slot %d length %d: %w", e.Slot(), e.Length(), err)
	}
	end, ok := sizing.AddInt64(e.Offset(), n)
	if !ok {
		return 0, fmt.Errorf("%w: slot %d ends past the largest file offset", vaulttype.ErrCorruptRow, e.Slot())
	}
	return end, nil
}

func emit(progress vaulttype.ProgressFunc, stage vaulttype.ProgressStage, e *entry.Entry) {
	if progress == nil {
		return
	}
	ev := vaulttype.ProgressEvent{Stage: stage, Slot: e.Slot(), Bytes: e.Length()}
	if !e.Sealed() {
		ev.Name = e.Name()
	}
	progress(ev)
}

// reserve extends a short file so the whole directory region exists on disk.
func reserve(f *section.File) error {
	size, err := f.Size()
	if err != nil {
		return err
	}
	if size >= section.Data.Start {
		return nil
	}
	return f.Within(section.AllocationTable, func(w *section.Window) error {
		if err := w.Seek(section.AllocationTable.Len() - 1); err != nil {
			return err
		}
		return w.WriteUint8(0)
	})
}
