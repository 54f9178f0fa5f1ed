package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxSlugLength bounds slugs so exported file names stay well under common
// filesystem limits.
const maxSlugLength = 80

// Slugify lowercases s, strips diacritics, and joins alphanumeric runs with
// single dashes. "Crash when saving: Ünïcode paths!" becomes
// "crash-when-saving-unicode-paths". Returns "untitled" when nothing remains.
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	slug := b.String()
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(truncateRunes(slug, maxSlugLength), "-")
	}
	if slug == "" {
		return "untitled"
	}
	return slug
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := 0
	for i := range s {
		if i > limit {
			break
		}
		cut = i
	}
	return s[:cut]
}
