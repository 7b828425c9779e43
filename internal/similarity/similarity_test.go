package similarity

import (
	"math"
	"testing"
)

func TestScoreIdenticalItems(t *testing.T) {
	text := "blue ceramic mug Blue Ceramic Mug Home & Garden Good A handmade blue ceramic mug"
	key := "blue_ceramic_mug"

	score := Score(text, key, text, key)
	if score != 1.0 {
		t.Errorf("Expected identical items to score 1.0, got %f", score)
	}
}

func TestScoreEmptyKeys(t *testing.T) {
	// With no key tokens the Jaccard component is 0 and the score reduces
	// to the 0.60 text + 0.20 key character components.
	score := Score("same text", "", "same text", "")
	if math.Abs(score-0.80) > 1e-9 {
		t.Errorf("Expected 0.80 for identical text with empty keys, got %f", score)
	}
}

func TestScoreWeighting(t *testing.T) {
	// Text ratio 2/3, key ratio 1.0, token Jaccard 1.0.
	score := Score("abc", "a", "abd", "a")
	if math.Abs(score-0.80) > 1e-9 {
		t.Errorf("Expected 0.80, got %f", score)
	}
}

func TestKeyJaccard(t *testing.T) {
	tests := []struct {
		name     string
		keyA     string
		keyB     string
		expected float64
	}{
		{
			name:     "identical keys",
			keyA:     "blue_mug",
			keyB:     "blue_mug",
			expected: 1.0,
		},
		{
			name:     "word order ignored",
			keyA:     "blue_mug",
			keyB:     "mug_blue",
			expected: 1.0,
		},
		{
			name:     "partial overlap",
			keyA:     "blue_mug",
			keyB:     "red_mug",
			expected: 1.0 / 3.0,
		},
		{
			name:     "no overlap",
			keyA:     "wooden_chair",
			keyB:     "blue_mug",
			expected: 0.0,
		},
		{
			name:     "empty key scores zero",
			keyA:     "",
			keyB:     "blue_mug",
			expected: 0.0,
		},
		{
			name:     "both empty score zero",
			keyA:     "",
			keyB:     "",
			expected: 0.0,
		},
		{
			name:     "case insensitive",
			keyA:     "Blue_Mug",
			keyB:     "blue_mug",
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeyJaccard(tt.keyA, tt.keyB)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("KeyJaccard(%q, %q) = %f, want %f", tt.keyA, tt.keyB, got, tt.expected)
			}
		})
	}
}

func TestStringSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		s1       string
		s2       string
		expected float64
	}{
		{
			name:     "identical",
			s1:       "vintage lamp",
			s2:       "vintage lamp",
			expected: 1.0,
		},
		{
			name:     "case folded",
			s1:       "Vintage Lamp",
			s2:       "vintage lamp",
			expected: 1.0,
		},
		{
			name:     "both empty",
			s1:       "",
			s2:       "",
			expected: 1.0,
		},
		{
			name:     "one edit in three chars",
			s1:       "abc",
			s2:       "abd",
			expected: 2.0 / 3.0,
		},
		{
			name:     "completely different",
			s1:       "aaa",
			s2:       "bbb",
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stringSimilarity(tt.s1, tt.s2)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("stringSimilarity(%q, %q) = %f, want %f", tt.s1, tt.s2, got, tt.expected)
			}
		})
	}
}

func TestScoreRange(t *testing.T) {
	pairs := [][4]string{
		{"a mug", "mug", "an old chair", "old_chair"},
		{"", "", "", ""},
		{"blue mug with handle", "blue_mug", "mug blue with handle", "mug_blue"},
	}
	for _, p := range pairs {
		score := Score(p[0], p[1], p[2], p[3])
		if score < 0.0 || score > 1.0 {
			t.Errorf("Score(%q, %q, %q, %q) = %f out of [0,1]", p[0], p[1], p[2], p[3], score)
		}
	}
}
