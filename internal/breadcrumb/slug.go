package breadcrumb

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// separatorRun matches runs of hyphens and whitespace, including the
	// Unicode space separators and the vertical tab / BOM that browsers
	// treat as whitespace.
	separatorRun = regexp.MustCompile(`[-\s\p{Z}\x{000B}\x{FEFF}]+`)

	// combiningDiacritics is the Combining Diacritical Marks block
	// (U+0300..U+036F) that NFD splits off accented Latin letters.
	combiningDiacritics = &unicode.RangeTable{
		R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
	}
)

// Slugify turns a category path or label into the link form used by the
// storefront router.
// Example: "Calçados Femininos" -> "calcados-femininos"
//
// Characters other than whitespace and hyphens are left alone, so a path
// such as "Department/Category" keeps its slash.
func Slugify(s string) string {
	decomposed := norm.NFD.String(s)
	lowered := strings.ToLower(decomposed)

	stripped, _, err := transform.String(runes.Remove(runes.In(combiningDiacritics)), lowered)
	if err != nil {
		stripped = lowered
	}

	stripped = strings.TrimFunc(stripped, isSpace)
	return separatorRun.ReplaceAllString(stripped, "-")
}

// isSpace reports whether r is trimmed from the ends of a slug. It covers
// the same whitespace as separatorRun; U+0085 is not whitespace here.
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\ufeff':
		return true
	}
	return unicode.Is(unicode.Z, r)
}
