package scan

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks decomposes accented characters and strips the combining marks,
// so "Café Über" folds to "Cafe Uber" before tokenization.
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts an arbitrary file name stem into a lowercase web-safe
// slug: diacritics folded, runs of non-alphanumerics collapsed to single
// hyphens, no leading or trailing hyphen. Empty input yields "untitled".
func Slugify(name string) string {
	folded, _, err := transform.String(foldMarks, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r + ('a' - 'A'))
		default:
			pendingHyphen = true
		}
	}

	slug := b.String()
	if slug == "" {
		return "untitled"
	}
	return slug
}
