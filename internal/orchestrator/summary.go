package orchestrator

import (
	"time"

	"github.com/jonesrussell/newsroom-crawler/internal/domain"
)

// OrgSummary counts what happened to one organization during a run.
type OrgSummary struct {
	Organization string        `json:"organization"`
	Seeds        int           `json:"seeds"`
	SeedFailures int           `json:"seed_failures"`
	Discovered   int           `json:"discovered"`
	Skipped      int           `json:"skipped"`
	Qualified    int           `json:"qualified"`
	Rejected     int           `json:"rejected"`
	NoData       int           `json:"no_data"`
	FetchFailed  int           `json:"fetch_failed"`
	Snapshots    int           `json:"snapshots"`
	Duration     time.Duration `json:"duration"`
	Error        string        `json:"error,omitempty"`
}

func (s *OrgSummary) count(outcome domain.LinkOutcome) {
	switch outcome {
	case domain.OutcomeQualified:
		s.Qualified++
	case domain.OutcomeRejected:
		s.Rejected++
	case domain.OutcomeNoData:
		s.NoData++
	case domain.OutcomeFetchFailed:
		s.FetchFailed++
	}
}

func (s *OrgSummary) add(other OrgSummary) {
	s.Seeds += other.Seeds
	s.SeedFailures += other.SeedFailures
	s.Discovered += other.Discovered
	s.Skipped += other.Skipped
	s.Qualified += other.Qualified
	s.Rejected += other.Rejected
	s.NoData += other.NoData
	s.FetchFailed += other.FetchFailed
	s.Snapshots += other.Snapshots
	s.Duration += other.Duration
}

// Summary describes one run.
type Summary struct {
	RunID         string       `json:"run_id"`
	StartedAt     time.Time    `json:"started_at"`
	FinishedAt    time.Time    `json:"finished_at"`
	Organizations []OrgSummary `json:"organizations"`
	Listings      []string     `json:"listings,omitempty"`
}

// Duration is the wall-clock time of the run.
func (s Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Totals sums the organization counters. Duration is the summed
// per-organization crawl time.
func (s Summary) Totals() OrgSummary {
	total := OrgSummary{Organization: "TOTAL"}
	for _, org := range s.Organizations {
		total.add(org)
	}
	return total
}
