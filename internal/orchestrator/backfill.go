package orchestrator

import (
	"context"

	"github.com/jonesrussell/newsroom-crawler/internal/logger"
)

// BackfillSummary counts the work done by Backfill.
type BackfillSummary struct {
	Checked int `json:"checked"`
	Written int `json:"written"`
	Failed  int `json:"failed"`
}

// Backfill fetches and snapshots every stored record whose snapshot file is
// missing. It shares the run lock with Run.
func (o *Orchestrator) Backfill(ctx context.Context) (BackfillSummary, error) {
	if !o.running.CompareAndSwap(false, true) {
		return BackfillSummary{}, ErrRunInProgress
	}
	defer o.running.Store(false)

	var sum BackfillSummary
	log := o.log.With(logger.String("task", "backfill"))

	session := o.sessions.Open(ctx)
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("Failed to close fetch session", logger.Error(err))
		}
	}()

	for _, r := range o.store.Records() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		sum.Checked++
		if o.snapshots.Exists(r.Organization, r.URL) {
			continue
		}

		page := session.Fetch(ctx, r.URL)
		o.metrics.Fetch(page.Mode.String())
		if !page.OK() {
			sum.Failed++
			log.Warn("Backfill fetch failed", logger.URL(r.URL), logger.Error(page.Err))
			continue
		}

		var orgSum OrgSummary
		o.snapshot(log, r.Organization, r.URL, page.Markup, &orgSum)
		sum.Written += orgSum.Snapshots
	}

	log.Info("Snapshot backfill finished",
		logger.Int("checked", sum.Checked),
		logger.Int("written", sum.Written),
		logger.Int("failed", sum.Failed),
	)
	return sum, nil
}
