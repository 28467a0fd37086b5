package analytics

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

var slicePattern = regexp.MustCompile(`\[\d*:\d*:?\d*\]`)

// ComplexityScore is a relative cost heuristic for ranking queries: base 1,
// +3 per filter, +2 for recursive descent, +2 per slice, +1.5 per wildcard,
// +1 per comma, +2 per empty call, plus a tenth of the length in UTF-16
// units. Rounded to one decimal.
func ComplexityScore(query string) float64 {
	score := 1.0
	score += 3 * float64(strings.Count(query, "?("))
	if strings.Contains(query, "..") {
		score += 2
	}
	score += 2 * float64(len(slicePattern.FindAllStringIndex(query, -1)))
	score += 1.5 * float64(strings.Count(query, "*"))
	score += float64(strings.Count(query, ","))
	score += 2 * float64(strings.Count(query, "()"))
	score += float64(len(utf16.Encode([]rune(query)))) / 10
	return round(score, 1)
}
