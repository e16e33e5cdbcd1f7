// Package urlextract scans decoded text for absolute http(s) URLs.
package urlextract

import (
	"net/url"
	"strings"
)

var prefixes = []string{"http://", "https://"}

// terminator reports whether c ends a URL candidate.
func terminator(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '"', '\'', '`', '<', '>':
		return true
	}
	return c < 0x20
}

// Extract returns every valid absolute http(s) URL found in text,
// de-duplicated in first-seen order.
func Extract(text string) []string {
	var urls []string
	seen := make(map[string]struct{})

	for i := 0; i < len(text); {
		start := -1
		for _, p := range prefixes {
			if idx := indexFrom(text, p, i); idx >= 0 && (start < 0 || idx < start) {
				start = idx
			}
		}
		if start < 0 {
			break
		}
		end := start
		for end < len(text) && !terminator(text[end]) {
			end++
		}
		candidate := text[start:end]
		// Resume past the candidate body either way, so the scan stays
		// single-pass on prefix-heavy input.
		i = end

		if !Valid(candidate) {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		urls = append(urls, candidate)
	}
	return urls
}

// Valid reports whether s parses as an absolute http(s) URL with a host.
func Valid(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

func indexFrom(s, sub string, from int) int {
	if from >= len(s) {
		return -1
	}
	idx := strings.Index(s[from:], sub)
	if idx < 0 {
		return -1
	}
	return from + idx
}
