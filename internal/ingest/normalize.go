package ingest

import "strings"

// Normalize canonicalizes a column header for fuzzy matching: trim,
// lower-case, and strip every character outside [a-z0-9]. It is pure and
// idempotent. The same normalization is applied to bin codes when they are
// looked up against the location reference, so "Bin 12-A" and "bin12a" match.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
