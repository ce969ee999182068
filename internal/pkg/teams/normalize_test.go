package teams

import (
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"FC Bayern Munich (GER)", "Bayern Munich"},
		{"The Arsenal FC", "Arsenal"},
		{"AC Milan", "Milan"},
		{"Wimbledon AFC", "Wimbledon"},
		{"RCD Espanyol", "Espanyol"},
		{"VfB Stuttgart", "Stuttgart"},
		{"Hamburger SV 1887", "Hamburger SV"},
		{"Sheffield Wednesday [ENG]", "Sheffield Wednesday"},
		{"  Real   Madrid  ", "Real Madrid"},
		{"Chelsea", "Chelsea"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"FC Bayern Munich (GER)",
		"The Arsenal FC",
		"NK Maribor",
		"Borussia Dortmund",
		"St. Pauli 1910",
		"Arsenal FC 2004",
		"Paris Saint-Germain",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestSimilarity_Reflexive(t *testing.T) {
	for _, s := range []string{"Arsenal", "Manchester United", "Bayern Munich", ""} {
		if got := Similarity(s, s); got != 1 {
			t.Errorf("Similarity(%q, %q) = %v, want 1", s, s, got)
		}
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Manchester United", "Man United"},
		{"Arsenal", "Arsenal FC"},
		{"Bayern Munich", "Bayern München"},
		{"Inter", "Inter Milan"},
	}
	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if ab != ba {
			t.Errorf("Similarity(%q, %q) = %v but reversed = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestSimilarity_LengthShortCircuit(t *testing.T) {
	// "AZ" vs a much longer name: length ratio below 50% returns 0 outright.
	if got := Similarity("AZ", "Borussia Mönchengladbach"); got != 0 {
		t.Errorf("expected short-circuit to 0, got %v", got)
	}
}

func TestSimilarity_CloseNamesScoreHigh(t *testing.T) {
	pairs := [][2]string{
		{"Manchester United", "Manchester Utd"},
		{"Real Madrid", "Real Madrid CF"},
		{"Bayern Munich", "Bayern Munchen"},
	}
	for _, p := range pairs {
		if got := Similarity(p[0], p[1]); got < 0.7 {
			t.Errorf("Similarity(%q, %q) = %v, want >= 0.7", p[0], p[1], got)
		}
	}
}

// Abbreviated forms must clear the fuzzy bars: 0.80 for event dedup,
// 0.85 for alias auto-learning.
func TestSimilarity_AbbreviationsScoreHigh(t *testing.T) {
	tests := []struct {
		a, b string
		min  float64
	}{
		{"Man United", "Manchester United", 0.80},
		{"Manchester Utd", "Manchester United", 0.85},
		{"Man City", "Manchester City", 0.80},
	}
	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); got < tt.min {
			t.Errorf("Similarity(%q, %q) = %v, want >= %v", tt.a, tt.b, got, tt.min)
		}
	}
}

// Sharing a city must not be enough to merge two clubs.
func TestSimilarity_SameCityDifferentClubs(t *testing.T) {
	if got := Similarity("Manchester United", "Manchester City"); got >= 0.8 {
		t.Errorf("Similarity = %v, want < 0.8", got)
	}
}

func TestSimilarity_DifferentTeamsScoreLow(t *testing.T) {
	pairs := [][2]string{
		{"Arsenal", "Tottenham"},
		{"Barcelona", "Benfica"},
	}
	for _, p := range pairs {
		if got := Similarity(p[0], p[1]); got >= 0.7 {
			t.Errorf("Similarity(%q, %q) = %v, want < 0.7", p[0], p[1], got)
		}
	}
}
