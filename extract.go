package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Extract decrypts e and writes it to outputPath, restoring its modification
// time. It requires private capability.
//
// Uses atomic writes (temp file + rename) so a failed extraction never leaves
// a partial file at outputPath. Parent directories are created as needed.
func (v *Vault) Extract(e Entry, outputPath string) error {
	ae, err := v.lookupSlot(e)
	if err != nil {
		return err
	}
	e = viewOf(ae)
	if e.Pending {
		return fmt.Errorf("extract slot %d: %w", e.Slot, ErrNotCommitted)
	}
	data, err := v.ReadEntry(e)
	if err != nil {
		return err
	}
	if v.progress != nil {
		v.progress(ProgressEvent{Stage: StageExtracting, Name: e.Name, Slot: e.Slot, Bytes: e.Size})
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := writeFileAtomic(outputPath, data, e); err != nil {
		return fmt.Errorf("write %s: %w", outputPath, err)
	}
	v.log().Debug("entry extracted", "slot", e.Slot, "bytes", len(data))
	return nil
}

// ExtractAll extracts every committed entry into dir under its stored name.
// It returns the number of entries written. Names are checked before anything
// is written: two entries with the same base name fail with fs.ErrExist.
func (v *Vault) ExtractAll(dir string) (int, error) {
	var todo []Entry
	slots := make(map[string]int)
	for _, e := range v.List() {
		if e.Pending {
			continue
		}
		if e.Sealed {
			return 0, ErrNoPrivateKey
		}
		name := filepath.Base(e.Name)
		if name == "." || name == ".." || name == string(filepath.Separator) {
			return 0, &fs.PathError{Op: "extract", Path: e.Name, Err: fs.ErrInvalid}
		}
		if prev, ok := slots[name]; ok {
			return 0, &fs.PathError{
				Op:   fmt.Sprintf("extract slots %d and %d", prev, e.Slot),
				Path: name,
				Err:  fs.ErrExist,
			}
		}
		slots[name] = e.Slot
		todo = append(todo, e)
	}

	n := 0
	for _, e := range todo {
		if err := v.Extract(e, filepath.Join(dir, filepath.Base(e.Name))); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// writeFileAtomic writes data to a temp file beside target, stamps the entry's
// modification time on it, then renames it over target.
func writeFileAtomic(target string, data []byte, e Entry) error {
	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, ".vault-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chtimes(tmpPath, e.ModTime, e.ModTime); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
