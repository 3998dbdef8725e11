package store

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"github.com/jonesrussell/newsroom-crawler/internal/domain"
)

// utf16LE is the encoding of snapshots and listings read by the analysis tools.
var utf16LE encoding.Encoding = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// SnapshotWriter stores page text as UTF-16LE files keyed by organization and URL.
type SnapshotWriter struct {
	dir string
}

// NewSnapshotWriter creates a writer rooted at dir.
func NewSnapshotWriter(dir string) *SnapshotWriter {
	return &SnapshotWriter{dir: dir}
}

// Dir returns the snapshot directory.
func (w *SnapshotWriter) Dir() string {
	return w.dir
}

// Path returns the file a snapshot for (org, url) is written to.
func (w *SnapshotWriter) Path(org, url string) string {
	return filepath.Join(w.dir, SnapshotFileName(org, url))
}

// SnapshotFileName is "{org}_{url without scheme, slashes as underscores}.txt".
func SnapshotFileName(org, url string) string {
	safe := strings.TrimPrefix(url, "https://")
	safe = strings.TrimPrefix(safe, "http://")
	safe = strings.ReplaceAll(safe, "/", "_")
	return org + "_" + safe + ".txt"
}

// Exists reports whether a snapshot for (org, url) is already on disk.
func (w *SnapshotWriter) Exists(org, url string) bool {
	_, err := os.Stat(w.Path(org, url))
	return err == nil
}

// Write stores s unless a snapshot for the same key exists. It reports
// whether a file was written.
func (w *SnapshotWriter) Write(s domain.Snapshot) (bool, error) {
	path := w.Path(s.Organization, s.URL)

	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat snapshot %s: %w", path, err)
	}

	if err := writeUTF16File(path, s.Text); err != nil {
		return false, fmt.Errorf("write snapshot: %w", err)
	}
	return true, nil
}

// Read decodes the snapshot for (org, url).
func (w *SnapshotWriter) Read(org, url string) (string, error) {
	return readUTF16File(w.Path(org, url))
}

func writeUTF16File(path, text string) error {
	return writeFileAtomic(path, func(out io.Writer) error {
		enc := utf16LE.NewEncoder().Writer(out)
		_, err := io.WriteString(enc, text)
		return err
	})
}

func readUTF16File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(utf16LE.NewDecoder().Reader(f))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	return string(data), nil
}
