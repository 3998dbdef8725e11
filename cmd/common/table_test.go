package common_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	cmdcommon "github.com/jonesrussell/newsroom-crawler/cmd/common"
	"github.com/jonesrussell/newsroom-crawler/internal/orchestrator"
)

func TestRenderSummary(t *testing.T) {
	t.Parallel()

	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	summary := orchestrator.Summary{
		RunID:      "run-42",
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Organizations: []orchestrator.OrgSummary{
			{Organization: "Acme", Seeds: 2, Discovered: 7, Qualified: 3, Rejected: 4},
			{Organization: "Beta", Seeds: 1, SeedFailures: 1, Error: "store unavailable"},
		},
		Listings: []string{"url_files/all_processed_urls.txt"},
	}

	var buf bytes.Buffer
	cmdcommon.RenderSummary(&buf, summary)
	out := buf.String()

	assert.Contains(t, out, "Run run-42 (1m30s)")
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "1 (1 failed)")
	assert.Contains(t, out, "store unavailable")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "Wrote url_files/all_processed_urls.txt")
}

func TestRenderBackfill(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cmdcommon.RenderBackfill(&buf, orchestrator.BackfillSummary{Checked: 5, Written: 2, Failed: 1})

	out := buf.String()
	assert.Contains(t, out, "CHECKED")
	assert.Contains(t, out, "5")
}

func TestIsCancellation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"canceled", context.Canceled, true},
		{"wrapped deadline", fmt.Errorf("crawl: %w", context.DeadlineExceeded), true},
		{"joined", errors.Join(errors.New("seed"), context.Canceled), true},
		{"other", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, cmdcommon.IsCancellation(tt.err))
		})
	}
}
