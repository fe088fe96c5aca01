package fs

import (
	"fmt"
	"os"
	"path/filepath"
)

// TempFilePrefix marks files that hold a slot value being replaced. keyOf and
// the watcher skip them.
const TempFilePrefix = "pinboard-tmp-"

const slotPerm = 0644

// replaceSlot stages value next to the key file and renames it over the
// current value, so readers see either the old or the new slot, never a mix.
// The system directory is synced afterwards so the rename survives a crash.
func (s *Store) replaceSlot(key string, value []byte) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}
	dir := s.Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create system directory: %w", err)
	}

	staged, err := os.CreateTemp(dir, TempFilePrefix+key+"-*")
	if err != nil {
		return fmt.Errorf("slot %s: stage: %w", key, err)
	}
	stagedPath := staged.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(stagedPath)
		}
	}()

	_, werr := staged.Write(value)
	if werr == nil {
		werr = staged.Sync()
	}
	if cerr := staged.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Chmod(stagedPath, slotPerm)
	}
	if werr != nil {
		return fmt.Errorf("slot %s: stage: %w", key, werr)
	}

	if err := os.Rename(stagedPath, path); err != nil {
		return fmt.Errorf("slot %s: replace: %w", key, err)
	}
	committed = true

	if err := syncDir(dir); err != nil {
		s.config.Logger.Debug("system directory sync skipped", "dir", dir, "error", err)
	}
	return nil
}

// syncDir flushes directory metadata. Some platforms cannot sync a directory;
// callers only log the error.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// staleStaged lists leftover staged files, e.g. from a crash mid-write.
func (s *Store) staleStaged() ([]string, error) {
	return filepath.Glob(filepath.Join(s.Dir(), TempFilePrefix+"*"))
}
