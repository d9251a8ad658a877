package classifier

import (
	"strings"

	xutil "FinAdvisor/pkg/util"
)

var arabicFolds = strings.NewReplacer(
	"أ", "ا", "إ", "ا", "آ", "ا", "ٱ", "ا",
	"ى", "ي", "ة", "ه", "ؤ", "و", "ئ", "ي",
	"ـ", "",
)

// Normalize lowercases text, collapses whitespace and folds Arabic letter
// variants so keyword patterns match regardless of spelling.
func Normalize(s string) string {
	return xutil.CollapseSpaces(foldArabic(strings.ToLower(s)))
}

func foldArabic(s string) string {
	s = strings.Map(func(r rune) rune {
		// harakat and tanween
		if r >= 0x064B && r <= 0x0652 || r == 0x0670 {
			return -1
		}
		return r
	}, s)
	return arabicFolds.Replace(s)
}
