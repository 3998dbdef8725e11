// Package store persists qualified article records, page snapshots and URL
// listings. Every write goes through a temp file and a rename so a crash
// never leaves a torn artifact behind.
package store

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/jonesrussell/newsroom-crawler/internal/domain"
)

var (
	// ErrDuplicate is returned when a record with the same URL is already stored.
	ErrDuplicate = errors.New("record already stored")
	// ErrCorruptStore is returned when the JSON results file cannot be decoded.
	ErrCorruptStore = errors.New("results file is corrupt")
)

// termSeparator joins matched terms in the CSV table.
const termSeparator = "; "

// csvHeader lists the CSV columns in JSON field order.
var csvHeader = []string{
	"organization",
	"title",
	"url",
	"published_date_raw",
	"matched_terms",
	"body_excerpt",
}

// ResultStore holds the full record history and mirrors it to a JSON file
// and a CSV table on every append.
type ResultStore struct {
	mu       sync.RWMutex
	jsonPath string
	csvPath  string
	records  []domain.ArticleRecord
	index    map[string]struct{}
}

// NewResultStore creates an empty store writing to jsonPath and csvPath.
// Call Load to pick up records from an earlier run.
func NewResultStore(jsonPath, csvPath string) *ResultStore {
	return &ResultStore{
		jsonPath: jsonPath,
		csvPath:  csvPath,
		index:    make(map[string]struct{}),
	}
}

// Load reads the JSON results file. A missing file yields an empty history;
// an undecodable one returns ErrCorruptStore and leaves the file untouched.
func (s *ResultStore) Load() ([]domain.ArticleRecord, error) {
	data, err := os.ReadFile(s.jsonPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.jsonPath, err)
	}

	var records []domain.ArticleRecord
	if len(strings.TrimSpace(string(data))) > 0 {
		if decodeErr := json.Unmarshal(data, &records); decodeErr != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCorruptStore, s.jsonPath, decodeErr)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = s.records[:0]
	s.index = make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, dup := s.index[r.URL]; dup {
			continue
		}
		s.index[r.URL] = struct{}{}
		s.records = append(s.records, r)
	}

	return s.snapshotLocked(), nil
}

// Append adds r and rewrites both files. If the flush fails the record is
// removed again and the error returned.
func (s *ResultStore) Append(r domain.ArticleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[r.URL]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, r.URL)
	}

	s.records = append(s.records, r)
	s.index[r.URL] = struct{}{}

	if err := s.flushLocked(); err != nil {
		s.records = s.records[:len(s.records)-1]
		delete(s.index, r.URL)
		// The JSON file may already hold r; put the files back in step with memory.
		_ = s.flushLocked()
		return err
	}
	return nil
}

// Flush rewrites both files from the in-memory history.
func (s *ResultStore) Flush() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.flushLocked()
}

// Records returns a copy of the stored records in append order.
func (s *ResultStore) Records() []domain.ArticleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshotLocked()
}

// URLs returns the identity keys of every stored record.
func (s *ResultStore) URLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	urls := make([]string, 0, len(s.records))
	for _, r := range s.records {
		urls = append(urls, r.URL)
	}
	return urls
}

// Has reports whether a record with url is stored.
func (s *ResultStore) Has(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.index[url]
	return ok
}

// Len returns the number of stored records.
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

func (s *ResultStore) snapshotLocked() []domain.ArticleRecord {
	out := make([]domain.ArticleRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *ResultStore) flushLocked() error {
	if err := writeFileAtomic(s.jsonPath, s.writeJSON); err != nil {
		return fmt.Errorf("flush json results: %w", err)
	}
	if err := writeFileAtomic(s.csvPath, s.writeCSV); err != nil {
		return fmt.Errorf("flush csv results: %w", err)
	}
	return nil
}

func (s *ResultStore) writeJSON(w io.Writer) error {
	records := s.records
	if records == nil {
		records = []domain.ArticleRecord{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

func (s *ResultStore) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range s.records {
		if err := cw.Write(recordRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// recordRow lays out r in csvHeader order.
func recordRow(r domain.ArticleRecord) []string {
	return []string{
		r.Organization,
		r.Title,
		r.URL,
		r.PublishedDateRaw,
		strings.Join(r.MatchedTerms, termSeparator),
		r.BodyExcerpt,
	}
}
