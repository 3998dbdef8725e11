// Package frontier discovers article links on seed pages and reduces every
// URL to the canonical form used as its identity in the ledger and the store.
package frontier

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
)

var errNotHTTP = errors.New("not an absolute http(s) url")

// clickIDs are ad-network query parameters. Every utm_* parameter is dropped
// as well.
var clickIDs = []string{"fbclid", "gclid", "gclsrc", "dclid", "msclkid", "mc_cid", "mc_eid"}

// NormalizeURL returns the canonical form of an absolute http(s) URL: scheme
// and host lowercased, default port and fragment removed, tracking parameters
// dropped. The path and the remaining query are left as published.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("normalize url: %w", errNotHTTP)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("normalize url: %w", err)
	}
	return canonical(u)
}

func checkHTTP(u *url.URL) error {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: %q", errNotHTTP, u.String())
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q", errNotHTTP, u.String())
	}
	return nil
}

func canonical(u *url.URL) (string, error) {
	if err := checkHTTP(u); err != nil {
		return "", err
	}

	out := *u
	out.Scheme = strings.ToLower(u.Scheme)
	out.Fragment, out.RawFragment = "", ""
	out.ForceQuery = false

	host := strings.ToLower(u.Hostname())
	switch port := u.Port(); {
	case port == "" || port == defaultPort(out.Scheme):
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
	default:
		host = net.JoinHostPort(host, port)
	}
	out.Host = host

	out.RawQuery = stripTracking(u.RawQuery)

	return out.String(), nil
}

// stripTracking drops tracking pairs from a raw query. The remaining pairs
// keep their published order and encoding.
func stripTracking(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	pairs := strings.Split(rawQuery, "&")
	kept := pairs[:0]
	for _, pair := range pairs {
		key, _, _ := strings.Cut(pair, "=")
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		if !isTracking(key) {
			kept = append(kept, pair)
		}
	}
	return strings.Join(kept, "&")
}

func defaultPort(scheme string) string {
	if scheme == "https" {
		return "443"
	}
	return "80"
}

func isTracking(key string) bool {
	key = strings.ToLower(key)
	return strings.HasPrefix(key, "utm_") || slices.Contains(clickIDs, key)
}
