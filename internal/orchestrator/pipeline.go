package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonesrussell/newsroom-crawler/internal/domain"
	"github.com/jonesrussell/newsroom-crawler/internal/extractor"
	"github.com/jonesrussell/newsroom-crawler/internal/fetcher"
	"github.com/jonesrussell/newsroom-crawler/internal/logger"
	"github.com/jonesrussell/newsroom-crawler/internal/store"
)

// processLink moves one discovered link through
// Discovered -> Fetching -> Extracting -> Filtering -> terminal outcome.
// Only persistence errors and cancellation are returned.
func (o *Orchestrator) processLink(
	ctx context.Context,
	session fetcher.Session,
	log logger.Logger,
	org, link string,
	sum *OrgSummary,
) error {
	if !o.tracker.Claim(link) {
		sum.Skipped++
		log.Debug("Skipping processed link", logger.URL(link))
		return nil
	}

	page := session.Fetch(ctx, link)
	o.metrics.Fetch(page.Mode.String())
	if !page.OK() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			o.tracker.Release(link)
			return ctxErr
		}
		log.Warn("Fetch failed",
			logger.URL(link),
			logger.String("kind", string(page.Kind)),
			logger.Int("status", page.Status),
			logger.Error(page.Err),
		)
		return o.finish(ctx, log, org, link, domain.OutcomeFetchFailed, sum)
	}

	o.snapshot(log, org, link, page.Markup, sum)

	candidate, ok := o.extractor.Extract(page.Markup)
	if !ok {
		log.Debug("No article data", logger.URL(link))
		return o.finish(ctx, log, org, link, domain.OutcomeNoData, sum)
	}

	decision := o.filter.Evaluate(candidate)
	if !decision.Qualified {
		log.Debug("Article rejected",
			logger.URL(link),
			logger.String("reason", decision.Reason),
		)
		return o.finish(ctx, log, org, link, domain.OutcomeRejected, sum)
	}

	record := domain.NewArticleRecord(org, link, candidate, decision.MatchedTerms, o.cfg.ExcerptLength)
	if err := o.store.Append(record); err != nil && !errors.Is(err, store.ErrDuplicate) {
		o.tracker.Release(link)
		return fmt.Errorf("store %s: %w", link, err)
	}

	if err := o.mirror.Index(ctx, record); err != nil {
		o.metrics.MirrorFailed()
		log.Warn("Failed to mirror record", logger.URL(link), logger.Error(err))
	}

	log.Info("Article qualified",
		logger.URL(link),
		logger.String("title", record.Title),
		logger.Strings("matched_terms", record.MatchedTerms),
	)
	return o.finish(ctx, log, org, link, domain.OutcomeQualified, sum)
}

// finish records a terminal outcome. A tracker error aborts the organization.
func (o *Orchestrator) finish(
	ctx context.Context,
	log logger.Logger,
	org, link string,
	outcome domain.LinkOutcome,
	sum *OrgSummary,
) error {
	if err := o.tracker.MarkProcessed(ctx, link, outcome); err != nil {
		return fmt.Errorf("mark %s: %w", link, err)
	}

	sum.count(outcome)
	o.metrics.LinkOutcome(org, string(outcome))
	log.Debug("Link processed",
		logger.URL(link),
		logger.String("outcome", string(outcome)),
	)
	return nil
}

// snapshot stores the page text of markup. Failures are logged only.
func (o *Orchestrator) snapshot(log logger.Logger, org, url string, markup []byte, sum *OrgSummary) {
	if o.snapshots.Exists(org, url) {
		return
	}

	text, err := extractor.PageText(markup)
	if err != nil {
		log.Warn("Failed to derive page text", logger.URL(url), logger.Error(err))
		return
	}

	written, err := o.snapshots.Write(domain.Snapshot{Organization: org, URL: url, Text: text})
	if err != nil {
		log.Warn("Failed to write snapshot", logger.URL(url), logger.Error(err))
		return
	}
	if written {
		sum.Snapshots++
		o.metrics.SnapshotWritten()
	}
}
