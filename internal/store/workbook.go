package store

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/jonesrussell/newsroom-crawler/internal/domain"
)

// Workbook sheet names.
const (
	ArticlesSheet      = "Articles"
	OrganizationsSheet = "Organizations"
)

var articleColumnWidths = []float64{22, 60, 60, 18, 40, 80}

// WriteWorkbook writes records to an XLSX file: one row per record on the
// Articles sheet and a per-organization count on the Organizations sheet.
func WriteWorkbook(path string, records []domain.ArticleRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", ArticlesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeArticlesSheet(f, records); err != nil {
		return err
	}
	if err := writeOrganizationsSheet(f, records); err != nil {
		return err
	}

	if err := writeFileAtomic(path, func(w io.Writer) error {
		return f.Write(w)
	}); err != nil {
		return fmt.Errorf("write workbook %s: %w", path, err)
	}
	return nil
}

func writeArticlesSheet(f *excelize.File, records []domain.ArticleRecord) error {
	if err := setRow(f, ArticlesSheet, 1, csvHeader); err != nil {
		return err
	}
	for i, r := range records {
		if err := setRow(f, ArticlesSheet, i+2, recordRow(r)); err != nil {
			return err
		}
	}

	for i, width := range articleColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err = f.SetColWidth(ArticlesSheet, col, col, width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if err := f.SetPanes(ArticlesSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	return nil
}

func writeOrganizationsSheet(f *excelize.File, records []domain.ArticleRecord) error {
	if _, err := f.NewSheet(OrganizationsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Organization]++
	}
	orgs := make([]string, 0, len(counts))
	for org := range counts {
		orgs = append(orgs, org)
	}
	sort.Strings(orgs)

	if err := setRow(f, OrganizationsSheet, 1, []any{"organization", "articles"}); err != nil {
		return err
	}
	for i, org := range orgs {
		if err := setRow(f, OrganizationsSheet, i+2, []any{org, counts[org]}); err != nil {
			return err
		}
	}
	return nil
}

func setRow[T any](f *excelize.File, sheet string, row int, values []T) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}

	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err = f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
