package pkginfo

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonWordRE   = regexp.MustCompile(`[^\w\s-]`)
	separatorRE = regexp.MustCompile(`[-\s]+`)

	asciiOnly = runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	}))
)

// Slugify turns a display name into a package name: accents are folded to
// ASCII, anything else outside letters, digits, underscores and dashes is
// dropped, and runs of spaces and dashes become a single dash.
func Slugify(value string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, asciiOnly), value)
	if err != nil {
		folded = value
	}
	folded = strings.ToLower(strings.TrimSpace(nonWordRE.ReplaceAllString(folded, "")))
	return separatorRE.ReplaceAllString(folded, "-")
}
