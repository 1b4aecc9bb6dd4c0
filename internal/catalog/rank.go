package catalog

import (
	"sort"
	"strings"
)

// Match is a ranked candidate name.
type Match struct {
	Name  string
	Score int // 0-100
	Index int // position in the candidate list
}

// RankOptions configures Rank.
type RankOptions struct {
	MaxResults int // 0 = unlimited
	MinScore   int // 0-100
}

// DefaultRankOptions returns the options used for best-match lookups.
func DefaultRankOptions() RankOptions {
	return RankOptions{MaxResults: 10, MinScore: 30}
}

// Rank scores candidates against query, ignoring case and punctuation, and
// returns them best first. Ties keep candidate order.
func Rank(query string, candidates []string, opts RankOptions) []Match {
	q := normalizeName(query)
	matches := make([]Match, 0, len(candidates))
	for i, c := range candidates {
		score := similarity(q, normalizeName(c))
		if score < opts.MinScore {
			continue
		}
		matches = append(matches, Match{Name: c, Score: score, Index: i})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if opts.MaxResults > 0 && len(matches) > opts.MaxResults {
		matches = matches[:opts.MaxResults]
	}
	return matches
}

// normalizeName lower-cases s and keeps only letters, digits and single spaces.
func normalizeName(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r > 127:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

// similarity combines exact, prefix, substring and edit-distance scoring.
func similarity(query, target string) int {
	if query == target {
		return 100
	}
	if query == "" || target == "" {
		return 0
	}

	q, t := []rune(query), []rune(target)
	if strings.HasPrefix(target, query) {
		return 90 + len(q)*9/len(t)
	}
	if strings.Contains(target, query) {
		return 80 + len(q)*9/len(t)
	}

	distance := levenshtein(q, t)
	return max(0, 100-distance*100/max(len(q), len(t)))
}

func levenshtein(a, b []rune) int {
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
