package text

import (
	"math"
	"testing"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"кафе", "кофе", 1},
		{"музей", "музеи", 1},
	}

	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarity_Identical(t *testing.T) {
	for _, s := range []string{"a", "Кафе Молоко", "Central Park"} {
		if got := Similarity(s, s); got != 1.0 {
			t.Errorf("Similarity(%q, %q) = %f, want 1.0", s, s, got)
		}
	}
}

func TestSimilarity_Empty(t *testing.T) {
	if got := Similarity("", "anything"); got != 0 {
		t.Errorf("Expected 0 for empty input, got %f", got)
	}
	if got := Similarity("anything", "   "); got != 0 {
		t.Errorf("Expected 0 for whitespace input, got %f", got)
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Кафе Молоко", "Кафе Малако"},
		{"Museum of Art", "Art Museum"},
		{"abc", "xyz"},
	}
	for _, p := range pairs {
		s1 := Similarity(p[0], p[1])
		s2 := Similarity(p[1], p[0])
		if math.Abs(s1-s2) > 1e-12 {
			t.Errorf("Similarity(%q, %q) not symmetric: %f vs %f", p[0], p[1], s1, s2)
		}
	}
}

func TestSimilarity_CaseAndSpaceInsensitive(t *testing.T) {
	if got := Similarity("  Кафе Молоко ", "кафе молоко"); got != 1.0 {
		t.Errorf("Expected 1.0 after normalization, got %f", got)
	}
}

func TestSimilarity_OneEdit(t *testing.T) {
	// "кофе" vs "кафе": 1 edit over 4 runes = 0.75.
	got := Similarity("кофе", "кафе")
	if math.Abs(got-0.75) > 1e-12 {
		t.Errorf("Expected 0.75, got %f", got)
	}
}
