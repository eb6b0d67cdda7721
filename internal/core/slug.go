package core

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify derives a URL-safe, lowercase identifier from a name. Accents are
// folded ("Calçados Femininos" -> "calcados-femininos") and every run of
// non-alphanumeric characters becomes a single hyphen.
func Slugify(s string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		s,
	)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// labelSlug is the lighter derivation used for navigation labels: lowercase
// with whitespace runs replaced by a hyphen.
func labelSlug(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), "-")
}

// uniqueSlug returns slug, or slug-2, slug-3... when already taken.
func uniqueSlug(slug string, taken map[string]bool) string {
	candidate := slug
	for n := 2; taken[candidate]; n++ {
		candidate = slug + "-" + strconv.Itoa(n)
	}
	taken[candidate] = true
	return candidate
}
