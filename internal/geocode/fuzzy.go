package geocode

import "strings"

// fuzzyThreshold is the minimum normalized similarity for a cache entry
// to stand in for a failed query.
const fuzzyThreshold = 0.8

// Similarity returns 1 - editDistance/maxLen over two strings, i.e. 1.0
// for identical inputs and 0.0 for entirely different ones.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

// levenshtein computes the edit distance with the classic two-row
// dynamic program.
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = minInt(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// fuzzyLookup scans the fresh cache entries for a key whose query part is
// similar enough to the normalized query. First hit above the threshold
// wins; at the call volumes involved a linear scan is fine.
func fuzzyLookup(cache *Cache, normalizedQuery string) ([]Result, string, bool) {
	for key, results := range cache.Snapshot() {
		cached, ok := strings.CutPrefix(key, "q:")
		if !ok {
			continue
		}
		// Strip the ":region:limit" suffix appended by Key.
		if i := strings.Index(cached, ":"); i >= 0 {
			cached = cached[:i]
		}
		if Similarity(normalizedQuery, cached) >= fuzzyThreshold {
			return results, key, true
		}
	}
	return nil, "", false
}
