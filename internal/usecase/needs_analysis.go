package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"FinAdvisor/internal/services/classifier"
)

const DefaultDetailedLengthThreshold = 120

// Folded forms, matched as whole words against classifier.Normalize output.
// Arabic entries match with attached prefixes but not suffixes, so suffixed
// forms that matter are listed on their own.
var analysisWords = []string{
	// news and recency
	"news", "latest", "recent", "recently", "this week", "this month", "right now", "headline",
	"اخبار", "خبر", "اخر", "مستجدات", "موخرا", "هذا الاسبوع", "هذا الشهر",
	// advice and comparison
	"compare", "comparing", "comparison", "recommend", "should i", "advice", "advise", "versus", "vs",
	"better", "best", "analyze", "analyzing", "analysis", "forecast", "outlook", "strategy",
	"انصح", "تنصح", "انصحني", "تنصحني", "نصيحه", "نصيحتك", "قارن", "مقارنه", "هل اشتري", "هل ابيع", "افضل", "احسن", "تحليل", "توقع", "توقعات", "استراتيجيه",
}

var analysisPatterns = compileWords(analysisWords)

func compileWords(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		out = append(out, classifier.WordPattern(w))
	}
	return out
}

// NeedsAnalysis reports whether message asks for current events, advice or
// comparison, or is long enough to deserve the detailed path.
func NeedsAnalysis(message string, lengthThreshold int) bool {
	if lengthThreshold <= 0 {
		lengthThreshold = DefaultDetailedLengthThreshold
	}
	if utf8.RuneCountInString(strings.TrimSpace(message)) > lengthThreshold {
		return true
	}
	text := classifier.Normalize(message)
	for _, p := range analysisPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
