// Package similarity scores how alike two catalogued items are. It powers
// both the cross-run duplicate merge decision (weighted composite score)
// and the within-run duplicate warnings (key-token Jaccard only).
package similarity

import (
	"math"
	"strings"
)

// Weights for the composite score. Canonical text carries the most
// discriminating signal; the token component tolerates word-order
// differences in keys (blue_mug vs mug_blue) that a character ratio
// alone would penalize.
const (
	textWeight  = 0.60
	keyWeight   = 0.20
	tokenWeight = 0.20
)

// Score computes the combined similarity of two items in [0, 1]:
// 60% canonical-text character ratio, 20% item-key character ratio,
// 20% item-key token Jaccard.
func Score(textA, keyA, textB, keyB string) float64 {
	textScore := stringSimilarity(textA, textB)
	keyScore := stringSimilarity(keyA, keyB)
	tokenScore := KeyJaccard(keyA, keyB)
	return textWeight*textScore + keyWeight*keyScore + tokenWeight*tokenScore
}

// KeyJaccard computes token-overlap similarity between two snake_case
// item keys. Returns 0 when either key has no tokens.
func KeyJaccard(keyA, keyB string) float64 {
	tokensA := keyTokens(keyA)
	tokensB := keyTokens(keyB)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	intersection := 0
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	return float64(intersection) / float64(union)
}

func keyTokens(key string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, token := range strings.Split(strings.ToLower(key), "_") {
		if token != "" {
			tokens[token] = struct{}{}
		}
	}
	return tokens
}

// stringSimilarity calculates character-level similarity between two
// strings using Levenshtein distance, from 0.0 (completely different)
// to 1.0 (identical).
func stringSimilarity(s1, s2 string) float64 {
	s1 = strings.ToLower(s1)
	s2 = strings.ToLower(s2)

	if s1 == s2 {
		return 1.0
	}

	distance := levenshteinDistance(s1, s2)
	maxLen := math.Max(float64(len(s1)), float64(len(s2)))

	if maxLen == 0 {
		return 1.0
	}

	return 1.0 - (float64(distance) / maxLen)
}

// levenshteinDistance calculates the Levenshtein distance between two strings
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}

			matrix[i][j] = minOf(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(s1)][len(s2)]
}

func minOf(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
