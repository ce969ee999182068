package teams

import (
	"strings"

	edlib "github.com/hbollon/go-edlib"
)

// Similarity scores how close two team names are, in [0, 1]. It works on a
// lowercased, punctuation-stripped key of each name and takes the better of
// two signals: whole-string Levenshtein ratio, which carries typos and minor
// spelling variants, and token alignment, which pairs up words across the two
// names and credits abbreviations ("Man" for "Manchester", "Utd" for
// "United") that edit distance alone scores far too low.
func Similarity(a, b string) float64 {
	ka := searchKey(a)
	kb := searchKey(b)
	if ka == kb {
		return 1
	}
	if ka == "" || kb == "" {
		return 0
	}

	// Names whose lengths differ by more than 50% cannot be the same team.
	shorter, longer := len(ka), len(kb)
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	if float64(shorter)/float64(longer) < 0.5 {
		return 0
	}

	lev := levenshteinRatio(ka, kb)
	if tok := tokenAlignment(ka, kb); tok > lev {
		return tok
	}
	return lev
}

// levenshteinRatio converts edit distance to 1 - d/max(|a|,|b|).
func levenshteinRatio(a, b string) float64 {
	sim, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0
	}
	return float64(sim)
}

// tokenAlignment greedily pairs each word of the shorter name with its
// best-scoring unused word of the longer one and averages over the longer
// name's word count, so unmatched extra words still dilute the score.
func tokenAlignment(a, b string) float64 {
	ta := strings.Fields(a)
	tb := strings.Fields(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	if len(ta) > len(tb) {
		ta, tb = tb, ta
	}

	used := make([]bool, len(tb))
	sum := 0.0
	for _, t := range ta {
		bestIdx, best := -1, 0.0
		for j, u := range tb {
			if used[j] {
				continue
			}
			if s := tokenScore(t, u); s > best {
				best, bestIdx = s, j
			}
		}
		if bestIdx >= 0 {
			used[bestIdx] = true
			sum += best
		}
	}
	return sum / float64(len(tb))
}

// tokenScore compares a single pair of words. A truncation like "man" for
// "manchester" scores 0.9; a contraction like "utd" for "united", where the
// short word starts the same and reads as an in-order selection of the long
// one, scores 0.85. Everything else falls back to per-word edit distance.
func tokenScore(a, b string) float64 {
	if a == b {
		return 1
	}
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) >= 3 && strings.HasPrefix(long, short) {
		return 0.9
	}
	if len(short) >= 2 && short[0] == long[0] && isSubsequence(short, long) {
		return 0.85
	}
	return levenshteinRatio(a, b)
}

func isSubsequence(short, long string) bool {
	i := 0
	for j := 0; j < len(long) && i < len(short); j++ {
		if long[j] == short[i] {
			i++
		}
	}
	return i == len(short)
}
