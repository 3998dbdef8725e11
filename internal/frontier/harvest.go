package frontier

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// linkSelector matches every element whose href is a navigable link.
const linkSelector = "a[href], area[href]"

// skipPrefixes lists href prefixes that never lead to a crawlable page.
var skipPrefixes = []string{"#", "javascript:", "mailto:", "tel:"}

// Harvest returns the unique, normalized http(s) links found in markup, in
// document order. Relative links are resolved against pageURL and
// protocol-relative links are given the https scheme. The page itself is not
// returned.
func Harvest(markup []byte, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	if validateErr := checkHTTP(base); validateErr != nil {
		return nil, validateErr
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	self, _ := NormalizeURL(pageURL)
	seen := map[string]struct{}{self: {}}
	links := make([]string, 0)

	doc.Find(linkSelector).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")

		link, ok := ResolveLink(base, href)
		if !ok {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}

		seen[link] = struct{}{}
		links = append(links, link)
	})

	return links, nil
}

// ResolveLink turns an href found on the page at base into a normalized
// absolute URL. It reports false for links that must be skipped.
func ResolveLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || shouldSkipLink(href) {
		return "", false
	}

	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	normalized, err := canonical(base.ResolveReference(ref))
	if err != nil {
		return "", false
	}

	return normalized, true
}

// shouldSkipLink determines if a link should be skipped based on its scheme or prefix.
func shouldSkipLink(link string) bool {
	lower := strings.ToLower(link)

	for _, prefix := range skipPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}

	return false
}
