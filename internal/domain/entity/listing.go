package entity

import (
	"fmt"
	"net/url"
	"strings"
)

// Listing represents one discovered business listing. It is created when the
// listing is first seen during discovery, accumulates reviews while its review
// pages are walked, and is finalized once those pages are exhausted.
type Listing struct {
	// ID is the canonical listing identifier: the normalized listing URL.
	// Two raw URLs that normalize to the same ID are the same listing.
	ID string

	Name        string
	Address     string
	City        string
	Rating      float64 // 0.0 when unknown
	ReviewCount int
	Website     string
	Phone       string

	// Description is optional enrichment text pulled from the listing's own
	// website, not from the content source.
	Description string

	Reviews []Review
}

// CanonicalListingID normalizes a raw listing URL into a stable identifier.
// The query string and fragment are dropped, scheme and host are lowercased,
// and when the final path segment carries a trailing numeric id the segment is
// reduced to that id. Cosmetic slug changes therefore never split one listing
// into two records.
func CanonicalListingID(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("parse listing url: %w", err)
	}
	if u.Host == "" || u.Scheme == "" {
		return "", fmt.Errorf("%w: listing url %q has no scheme or host", ErrInvalidInput, raw)
	}

	u.RawQuery = ""
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if last := len(segs) - 1; last >= 0 {
		if id := trailingNumericID(segs[last]); id != "" {
			segs[last] = id
		}
	}
	u.Path = "/" + strings.Join(segs, "/")

	return u.String(), nil
}

// trailingNumericID returns the numeric id at the end of a slug segment such
// as "dental-clinic-smile-1092834", or "" when the segment carries none.
func trailingNumericID(seg string) string {
	idx := strings.LastIndexAny(seg, "-_")
	if idx < 0 || idx == len(seg)-1 {
		return ""
	}
	tail := seg[idx+1:]
	for _, r := range tail {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return tail
}
