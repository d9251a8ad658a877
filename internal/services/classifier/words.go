package classifier

import (
	"regexp"
	"strings"

	xutil "FinAdvisor/pkg/util"
)

// arabicLetters covers the Arabic letter blocks after folding. Digits,
// punctuation and harakat are outside it, so they act as separators.
const arabicLetters = `\x{0621}-\x{064A}\x{066E}-\x{06D3}`

// ArabicWords wraps a pattern of alternatives so each one only matches as a
// whole word. A word may carry the attached prefixes و ف ب ل ك and the
// article ال, but no suffix: "خبر" matches "الخبر" and not "اخبرني".
func ArabicWords(alts string) string {
	return `(?:^|[^` + arabicLetters + `])[وفبلك]?(?:ال|ل)?(?:` + alts + `)(?:[^` + arabicLetters + `]|$)`
}

// WordPattern compiles a keyword for matching against Normalize output.
// Arabic keywords use the ArabicWords boundary. Latin keywords must start at
// a word boundary but may continue, so "recommend" matches "recommendations".
func WordPattern(word string) *regexp.Regexp {
	word = strings.TrimSpace(foldArabic(word))
	if xutil.ContainsArabic(word) {
		return regexp.MustCompile(ArabicWords(regexp.QuoteMeta(word)))
	}
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(word))
}
