package domain

// LinkOutcome is the terminal state of a discovered URL.
type LinkOutcome string

const (
	// OutcomeQualified means an ArticleRecord was persisted.
	OutcomeQualified LinkOutcome = "qualified"
	// OutcomeRejected means the filter rejected the page.
	OutcomeRejected LinkOutcome = "rejected"
	// OutcomeNoData means the extractor found no title.
	OutcomeNoData LinkOutcome = "no_data"
	// OutcomeFetchFailed means both fetch modes failed.
	OutcomeFetchFailed LinkOutcome = "fetch_failed"
)

// Valid reports whether o is a known outcome.
func (o LinkOutcome) Valid() bool {
	switch o {
	case OutcomeQualified, OutcomeRejected, OutcomeNoData, OutcomeFetchFailed:
		return true
	default:
		return false
	}
}

// Snapshot is the cleaned text of a fetched page, keyed by organization and URL.
type Snapshot struct {
	Organization string
	URL          string
	Text         string
}
