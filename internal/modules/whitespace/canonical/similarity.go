package canonical

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// ratio is 1 - edit distance / longer length, in [0, 1].
func ratio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 && lb == 0 {
		return 1
	}
	longest := max(la, lb)
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// Similarity compares two already-normalized names both as written and with
// spaces removed, so "ACME LABS" still matches "ACMELABS".
func Similarity(query, candidate string) float64 {
	spaced := ratio(query, candidate)
	compact := ratio(strings.ReplaceAll(query, " ", ""), strings.ReplaceAll(candidate, " ", ""))
	return max(spaced, compact)
}
