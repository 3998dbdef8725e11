package filter

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// ErrUnparsableDate is returned when no supported date can be read from a string.
var ErrUnparsableDate = errors.New("unparsable date")

// dateLayouts lists the accepted publish date formats in priority order.
// Single-digit days and months are accepted.
var dateLayouts = []string{
	"2006-1-2",
	"2.1.2006",
	"2/1/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006/1/2",
}

// embeddedDate finds a date inside a longer string.
var embeddedDate = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|\d{2}[-/]\d{2}[-/]\d{4}`)

// ParseDate reads a publish date. When the whole string matches no layout,
// the first embedded numeric date is tried against the same layouts.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrUnparsableDate
	}

	if t, ok := parseLayouts(raw); ok {
		return t, nil
	}

	if match := embeddedDate.FindString(raw); match != "" {
		if t, ok := parseLayouts(match); ok {
			return t, nil
		}
	}

	return time.Time{}, ErrUnparsableDate
}

func parseLayouts(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
