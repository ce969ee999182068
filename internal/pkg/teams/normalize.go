package teams

import (
	"regexp"
	"strings"
)

// clubPrefixes are stripped from the front of a name so "FC Barcelona" and
// "Barcelona" normalize the same. Dotted forms ("F.C.") are handled by the
// punctuation strip in searchKey; here we match the plain forms.
var clubPrefixes = []string{
	"RCD", "SSC", "AFC", "VfB", "VfL", "FC", "AC", "AS", "SC", "SK",
	"FK", "NK", "BK", "CF", "CD", "UD", "RC", "KV", "IF",
}

// clubSuffixes are stripped from the end ("Arsenal FC", "Wimbledon AFC").
var clubSuffixes = []string{
	"AFC", "FC", "SC", "CF", "BC", "FK", "IF", "BK", "AC",
}

var (
	parentheticalRe = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	bracketedRe     = regexp.MustCompile(`\s*\[[^\]]*\]\s*$`)
	trailingYearRe  = regexp.MustCompile(`\s+\d{4}$`)
	punctRe         = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	spaceRe         = regexp.MustCompile(`\s+`)
)

// Normalize rewrites a raw team name into its canonical form: trim, strip
// club prefix, strip club suffix, strip trailing parenthetical/bracketed
// qualifiers, strip a leading "The", strip a trailing 4-digit year, collapse
// whitespace. One strip can expose another ("Arsenal FC 2004" sheds the year
// first, then the suffix), so the pipeline repeats until the name is stable.
func Normalize(name string) string {
	s := spaceRe.ReplaceAllString(strings.TrimSpace(name), " ")
	for {
		next := normalizeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func normalizeOnce(s string) string {
	if s == "" {
		return ""
	}

	for _, p := range clubPrefixes {
		if len(s) > len(p)+1 && strings.HasPrefix(s, p+" ") {
			s = strings.TrimSpace(s[len(p)+1:])
			break
		}
	}

	for _, suf := range clubSuffixes {
		if len(s) > len(suf)+1 && strings.HasSuffix(s, " "+suf) {
			s = strings.TrimSpace(s[:len(s)-len(suf)-1])
			break
		}
	}

	s = parentheticalRe.ReplaceAllString(s, "")
	s = bracketedRe.ReplaceAllString(s, "")

	if strings.HasPrefix(s, "The ") && len(s) > 4 {
		s = s[4:]
	}

	s = trailingYearRe.ReplaceAllString(s, "")
	return spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// searchKey lowercases and strips punctuation so similarity compares only
// letters, digits and spaces.
func searchKey(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = punctRe.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	return s
}
