// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package spell

// Checker suggests corrections among a fixed set of known words.
type Checker struct {
	words []string
}

// NewChecker makes a checker over words. On equal distance, earlier
// words are preferred.
func NewChecker(words []string) Checker {
	return Checker{words}
}

// Correction returns the known word closest to word if it is within a
// third of word's length (at least one edit) of it.
func (c Checker) Correction(word string) (string, bool) {
	maxDist := len([]rune(word)) / 3
	if maxDist < 1 {
		maxDist = 1
	}

	best, bestDist := "", maxDist+1
	for _, candidate := range c.words {
		dist := Distance(word, candidate)
		if dist < bestDist {
			best, bestDist = candidate, dist
		}
	}
	return best, bestDist <= maxDist
}

// Distance is the Levenshtein distance between a and b counted in runes.
func Distance(a, b string) int {
	ar, br := []rune(a), []rune(b)

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ar); i++ {
		curr[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(br)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
