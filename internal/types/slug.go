package types

import "strings"

// Slug normalizes a pattern name into a filesystem-safe, identifier-safe
// key: lowercase, runs of non-alphanumerics collapsed to a single
// underscore, no leading or trailing underscore. The slug doubles as the
// learnings-store deduplication key, so two names that differ only in
// punctuation or case map to the same entry.
func Slug(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	return b.String()
}
