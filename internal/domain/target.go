package domain

// CrawlTarget is an organization together with its seed URLs.
// It is immutable after construction; Seeds returns a copy.
type CrawlTarget struct {
	organization string
	seeds        []string
}

// NewCrawlTarget creates a CrawlTarget, copying seeds.
func NewCrawlTarget(organization string, seeds []string) CrawlTarget {
	return CrawlTarget{
		organization: organization,
		seeds:        append([]string(nil), seeds...),
	}
}

// Organization returns the organization name.
func (t CrawlTarget) Organization() string {
	return t.organization
}

// Seeds returns a copy of the seed URLs.
func (t CrawlTarget) Seeds() []string {
	return append([]string(nil), t.seeds...)
}
