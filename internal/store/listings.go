package store

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jonesrussell/newsroom-crawler/internal/domain"
)

// AllURLsFile is the combined listing written next to the per-organization files.
const AllURLsFile = "all_processed_urls.txt"

// ListingFileName is "{Org_Name}_urls.txt" with spaces and slashes replaced.
func ListingFileName(org string) string {
	safe := strings.NewReplacer(" ", "_", "/", "_").Replace(org)
	return safe + "_urls.txt"
}

// WriteListings regenerates the UTF-16LE URL listings under dir from records:
// one file per organization plus AllURLsFile. Organizations keep the order in
// which they first appear. It returns the paths written.
func WriteListings(dir string, records []domain.ArticleRecord) ([]string, error) {
	var orgs []string
	byOrg := make(map[string][]string)
	for _, r := range records {
		if _, seen := byOrg[r.Organization]; !seen {
			orgs = append(orgs, r.Organization)
		}
		byOrg[r.Organization] = append(byOrg[r.Organization], r.URL)
	}

	written := make([]string, 0, len(orgs)+1)
	for _, org := range orgs {
		var b strings.Builder
		fmt.Fprintf(&b, "URLs for %s:\n\n", org)
		for _, u := range byOrg[org] {
			b.WriteString(u)
			b.WriteByte('\n')
		}

		path := filepath.Join(dir, ListingFileName(org))
		if err := writeUTF16File(path, b.String()); err != nil {
			return written, fmt.Errorf("write listing for %s: %w", org, err)
		}
		written = append(written, path)
	}

	var all strings.Builder
	all.WriteString("All Processed URLs:\n\n")
	for _, org := range orgs {
		fmt.Fprintf(&all, "\n=== %s ===\n", org)
		for _, u := range byOrg[org] {
			all.WriteString(u)
			all.WriteByte('\n')
		}
	}

	path := filepath.Join(dir, AllURLsFile)
	if err := writeUTF16File(path, all.String()); err != nil {
		return written, fmt.Errorf("write combined listing: %w", err)
	}
	return append(written, path), nil
}
