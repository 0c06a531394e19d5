package errors

import (
	"sort"
	"strings"
)

// maxSuggestionDistance is the largest edit distance still offered as a suggestion
const maxSuggestionDistance = 2

// ClosestMatch returns the candidate nearest to target by edit distance, or ""
// when none is close enough. Ties resolve to the lexically smallest candidate.
func ClosestMatch(target string, candidates []string) string {
	type scored struct {
		value    string
		distance int
	}

	limit := maxSuggestionDistance
	if len(target) <= 3 {
		limit = 1
	}

	var matches []scored
	lowered := strings.ToLower(target)
	for _, candidate := range candidates {
		if candidate == target {
			continue
		}
		dist := levenshtein(lowered, strings.ToLower(candidate))
		if dist <= limit {
			matches = append(matches, scored{candidate, dist})
		}
	}
	if len(matches) == 0 {
		return ""
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].distance != matches[j].distance {
			return matches[i].distance < matches[j].distance
		}
		return matches[i].value < matches[j].value
	})
	return matches[0].value
}

// levenshtein calculates the minimum number of single-rune edits between two strings
func levenshtein(s1, s2 string) int {
	a, b := []rune(s1), []rune(s2)
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
