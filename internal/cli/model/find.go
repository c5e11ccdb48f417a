package model

import (
	"strings"
	"unicode"

	"github.com/bnema/grove/pkg/explorer"
)

// minFindScore is the similarity a label token needs to count as a match
// when the query is not a plain substring of the label.
const minFindScore = 0.88

// findMatcher returns a predicate for Controller.SelectByPredicate. With a
// non-zero after, only nodes visited after that node in depth-first order
// can match.
func findMatcher(query string, after explorer.NodeID) func(explorer.Node) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	passed := after == 0
	return func(n explorer.Node) bool {
		if !passed {
			passed = n.ID() == after
			return false
		}
		if query == "" || n.Placeholder() || n.Parent() == nil {
			return false
		}
		return labelScore(query, n.View().Label) > 0
	}
}

// labelScore rates how well query matches label, from 0 to 1. query must be
// lower case.
func labelScore(query, label string) float64 {
	label = strings.ToLower(label)
	if label == "" {
		return 0
	}
	if s := substringScore(query, label); s > 0 {
		return s
	}
	if len(query) <= 3 {
		return 0
	}

	best := 0.0
	for _, token := range strings.FieldsFunc(label, isSeparator) {
		best = max(best, jaroWinkler(query, token))
	}
	if best < minFindScore {
		return 0
	}
	return best
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '.' || r == '_' || r == '-' || r == '/'
}

// substringScore favors matches covering more of the label and matches at
// its start.
func substringScore(query, text string) float64 {
	index := strings.Index(text, query)
	if index == -1 {
		return 0
	}

	score := float64(len(query)) / float64(len(text))
	switch {
	case index == 0:
		score *= 1.5
	case index < len(text)/3:
		score *= 1.2
	}
	return min(score, 1)
}

func jaroWinkler(s1, s2 string) float64 {
	if s1 == s2 {
		return 1
	}
	len1, len2 := len(s1), len(s2)
	if len1 == 0 || len2 == 0 {
		return 0
	}

	window := max(max(len1, len2)/2-1, 0)
	matched1 := make([]bool, len1)
	matched2 := make([]bool, len2)
	matches := 0

	for i := range len1 {
		for j := max(0, i-window); j < min(i+window+1, len2); j++ {
			if matched2[j] || s1[i] != s2[j] {
				continue
			}
			matched1[i], matched2[j] = true, true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions, k := 0, 0
	for i := range len1 {
		if !matched1[i] {
			continue
		}
		for !matched2[k] {
			k++
		}
		if s1[i] != s2[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	jaro := (m/float64(len1) + m/float64(len2) + (m-float64(transpositions/2))/m) / 3
	if jaro < 0.7 {
		return jaro
	}

	prefix := 0
	for i := 0; i < min(len1, len2, 4) && s1[i] == s2[i]; i++ {
		prefix++
	}
	return jaro + 0.1*float64(prefix)*(1-jaro)
}
