package blog

import (
	"strings"
	"unicode"
)

// prefixRunes is the length of the title prefix compared for long titles.
const prefixRunes = 20

// TitleKey reduces a title to its comparison key: whitespace and punctuation
// removed, letters lower-cased. Letters and digits of any script survive.
func TitleKey(title string) string {
	var b strings.Builder
	for _, r := range title {
		if r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(b.String())
}

// TitlesMatch reports whether two titles name the same article: one key
// contains the other, or both keys are longer than 20 characters and share
// their first 20. Titles with empty keys never match.
func TitlesMatch(a, b string) bool {
	return keysMatch(TitleKey(a), TitleKey(b))
}

func keysMatch(a, b string) bool {
	// A plain substring test would let an empty key match every title.
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) > prefixRunes && len(rb) > prefixRunes {
		return string(ra[:prefixRunes]) == string(rb[:prefixRunes])
	}
	return false
}
