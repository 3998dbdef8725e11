package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File permissions for artifacts and their directories.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// writeFileAtomic writes path through a temp file in the same directory,
// fsyncs it and renames it over path. Readers see the old or the new file,
// never a torn one.
func writeFileAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	buf := bufio.NewWriter(tmp)
	if writeErr := write(buf); writeErr != nil {
		return fmt.Errorf("write %s: %w", path, writeErr)
	}
	if flushErr := buf.Flush(); flushErr != nil {
		return fmt.Errorf("write %s: %w", path, flushErr)
	}
	if syncErr := tmp.Sync(); syncErr != nil {
		return fmt.Errorf("sync %s: %w", path, syncErr)
	}
	if closeErr := tmp.Close(); closeErr != nil {
		return fmt.Errorf("close %s: %w", path, closeErr)
	}
	if chmodErr := os.Chmod(tmpName, filePerm); chmodErr != nil {
		return fmt.Errorf("chmod %s: %w", path, chmodErr)
	}
	if renameErr := os.Rename(tmpName, path); renameErr != nil {
		return fmt.Errorf("rename %s: %w", path, renameErr)
	}

	committed = true
	return nil
}
