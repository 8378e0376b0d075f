package matching

import "strings"

// Scorer provides string comparison algorithms used for heuristic matching
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// ExactMatch returns 1.0 for exact match, 0.0 otherwise
func (s *Scorer) ExactMatch(a, b string, caseSensitive bool) float64 {
	if !caseSensitive {
		a = strings.ToLower(a)
		b = strings.ToLower(b)
	}
	if a == b {
		return 1.0
	}
	return 0.0
}

// Levenshtein calculates an edit-distance similarity between two strings.
// Returns a score between 0.0 and 1.0; symmetric in its arguments.
func (s *Scorer) Levenshtein(a, b string) float64 {
	distance := s.LevenshteinDistance(a, b)
	maxLen := max(len(a), len(b))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(distance)/float64(maxLen)
}

// LevenshteinDistance calculates the edit distance between two strings
func (s *Scorer) LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Create two rows for dynamic programming
	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}

// BestMatch is the result of scoring a target against a candidate list
type BestMatch struct {
	Ratio      float64
	MatchStr   string
	MatchIndex int
}

// FindBestMatch scores target against every candidate and returns the
// highest-ratio candidate. Ties resolve to the lowest index, so results are
// deterministic for a given candidate order. An empty candidate list returns
// MatchIndex -1 and ratio 0.
func (s *Scorer) FindBestMatch(candidates []string, target string, caseSensitive bool) BestMatch {
	best := BestMatch{MatchIndex: -1}
	if !caseSensitive {
		target = strings.ToLower(target)
	}
	for i, candidate := range candidates {
		c := candidate
		if !caseSensitive {
			c = strings.ToLower(c)
		}
		ratio := s.Levenshtein(c, target)
		if best.MatchIndex < 0 || ratio > best.Ratio {
			best = BestMatch{Ratio: ratio, MatchStr: candidate, MatchIndex: i}
		}
	}
	return best
}
