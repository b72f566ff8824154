package errors

import (
	"fmt"
	"strings"
)

// SuggestTag suggests a declared tag when an unexpected one is found.
// It picks the closest declared tag by Levenshtein distance.
func SuggestTag(unknown string, declared []string) string {
	if len(declared) == 0 {
		return ""
	}

	minDistance := 1000
	var bestMatch string

	for _, tag := range declared {
		dist := levenshteinDistance(unknown, tag)
		if dist < minDistance {
			minDistance = dist
			bestMatch = tag
		}
	}

	// Only suggest if the distance is reasonable
	if minDistance <= 3 && minDistance < len(unknown) {
		return fmt.Sprintf("Did you mean '%s'?", bestMatch)
	}

	if len(declared) > 5 {
		return fmt.Sprintf("Valid tags include: %s, ...", strings.Join(declared[:5], ", "))
	}
	return fmt.Sprintf("Valid tags: %s", strings.Join(declared, ", "))
}

// levenshteinDistance computes the Levenshtein distance between two strings.
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}
