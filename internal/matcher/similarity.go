package matcher

import (
	"strings"
	"unicode"
)

// TitleSimilarity scores how close two market titles are, in [0,1]. It is the
// Sørensen–Dice coefficient over normalized token sets, so word order does
// not matter: "X wins election (Nov 5
// deadline)" and "Will X win the election by Nov 5" still overlap heavily.
func TitleSimilarity(a, b string) float64 {
	ta := tokenize(a)
	tb := tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	common := 0
	for tok := range ta {
		if tb[tok] {
			common++
		}
	}

	return 2 * float64(common) / float64(len(ta)+len(tb))
}

// tokenize lower-cases the title, strips punctuation, and returns the set of
// remaining words. Digits are kept; dates and thresholds are often the most
// discriminating tokens in a market title.
func tokenize(title string) map[string]bool {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, title)

	set := make(map[string]bool)
	for _, tok := range strings.Fields(cleaned) {
		set[tok] = true
	}
	return set
}
