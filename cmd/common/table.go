package common

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jonesrussell/newsroom-crawler/internal/orchestrator"
)

// RenderSummary writes the per-organization counters of a run as a table.
func RenderSummary(w io.Writer, summary orchestrator.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Run %s (%s)", summary.RunID, summary.Duration().Truncate(time.Second)))

	t.AppendHeader(table.Row{
		"Organization", "Seeds", "Discovered", "Skipped", "Qualified",
		"Rejected", "No Data", "Fetch Failed", "Snapshots", "Error",
	})
	for _, org := range summary.Organizations {
		t.AppendRow(summaryRow(org))
	}

	t.AppendFooter(summaryRow(summary.Totals()))
	t.Render()

	for _, path := range summary.Listings {
		_, _ = fmt.Fprintf(w, "Wrote %s\n", path)
	}
}

// RenderBackfill writes the result of a snapshot backfill.
func RenderBackfill(w io.Writer, result orchestrator.BackfillSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Checked", "Written", "Failed"})
	t.AppendRow(table.Row{result.Checked, result.Written, result.Failed})
	t.Render()
}

func summaryRow(org orchestrator.OrgSummary) table.Row {
	seeds := fmt.Sprintf("%d", org.Seeds)
	if org.SeedFailures > 0 {
		seeds = fmt.Sprintf("%d (%d failed)", org.Seeds, org.SeedFailures)
	}
	return table.Row{
		org.Organization,
		seeds,
		org.Discovered,
		org.Skipped,
		org.Qualified,
		org.Rejected,
		org.NoData,
		org.FetchFailed,
		org.Snapshots,
		org.Error,
	}
}
