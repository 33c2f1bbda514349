package resource

import (
	"net/url"
	"strings"
)

// DefaultMarker is the conventional assets-root segment. When a resource
// path contains it, keys are truncated to begin at the marker so dev and
// prod deployments with different path prefixes still line up.
const DefaultMarker = "/static"

// NormalizedKey derives the canonical matching key for a resource URL:
// the URL path with scheme, host, query and fragment removed, truncated to
// begin at the marker segment when one exists. Two resources are the same
// resource across environments iff their normalized keys are equal.
//
// The boolean reports whether the URL parsed; when it did not, the literal
// raw string is returned as a fallback key so the resource is never
// dropped from totals.
func NormalizedKey(rawURL, marker string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, false
	}
	path := u.Path
	if path == "" {
		// Opaque or pathless URL: fall back to the raw string.
		return rawURL, false
	}
	return truncateAtMarker(path, marker), true
}

// ComparisonKey is the normalized key with the query string appended
// (fragment still excluded). It detects "same resource, different
// query/version" for resources whose normalized keys already match.
func ComparisonKey(rawURL, marker string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return rawURL, false
	}
	key := truncateAtMarker(u.Path, marker)
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key, true
}

// PathSegments splits a normalized key into its non-empty path segments.
func PathSegments(key string) []string {
	parts := strings.Split(key, "/")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// truncateAtMarker re-anchors path at the first whole segment equal to
// marker. A marker of "/static" matches the segment "static" only, never
// a prefix like "statics".
func truncateAtMarker(path, marker string) string {
	markerSeg := strings.Trim(marker, "/")
	if markerSeg == "" {
		return path
	}
	segs := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, s := range segs {
		if s == markerSeg {
			return "/" + strings.Join(segs[i:], "/")
		}
	}
	return path
}
