package compile

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent strips combining marks after canonical decomposition, turning
// "Über" into "Uber" before the ASCII reduction below.
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify reduces s to a lowercase ASCII URL segment. Runs of anything that
// is not a letter or digit collapse into a single dash.
func Slugify(s string) string {
	if out, _, err := transform.String(deaccent, s); err == nil {
		s = out
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	dash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// SlugifyPath slugifies every segment of a slash-separated path. Segments
// that reduce to nothing are dropped.
func SlugifyPath(p string) string {
	segments := strings.Split(p, "/")
	out := segments[:0]
	for _, seg := range segments {
		if slug := Slugify(seg); slug != "" {
			out = append(out, slug)
		}
	}
	return strings.Join(out, "/")
}
