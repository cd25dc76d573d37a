// Package search seeds fetch targets from web-search APIs. It is the
// fallback discovery path when a directory site's own search is blocked:
// the plan's query runs through a search provider and the organic results
// are filtered down to directory listing URLs.
package search

import (
	"net/url"
	"strings"
)

// skipHosts are result domains that never lead to a supplier listing.
var skipHosts = []string{
	"facebook.com",
	"linkedin.com",
	"twitter.com",
	"x.com",
	"instagram.com",
	"youtube.com",
	"wikipedia.org",
	"glassdoor.com",
	"naukri.com",
}

// directoryHosts are the sites whose listing pages we know how to parse.
var directoryHosts = []string{
	"indiamart.com",
	"justdial.com",
	"tradeindia.com",
}

// FilterListingURLs keeps only http(s) results on a known directory host,
// dropping duplicates and social/noise domains while preserving order.
func FilterListingURLs(raw []string) []string {
	var out []string
	seen := make(map[string]bool, len(raw))
	for _, s := range raw {
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			continue
		}
		host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
		if hostMatches(host, skipHosts) || !hostMatches(host, directoryHosts) {
			continue
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func hostMatches(host string, list []string) bool {
	for _, d := range list {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
