package domain

import "unicode"

// SplitSegments splits text into sentence-like segments. A boundary occurs
// after '.', '!' or '?' followed by whitespace and an uppercase letter; the
// separating whitespace is dropped. This is a heuristic, not a grammatical
// sentence splitter: abbreviations like "U.S. v. Smith" may be split and
// quoted sentences may be merged. Go's regexp has no lookaround, so the
// scan is done by hand.
func SplitSegments(text string) []string {
	runes := []rune(text)
	var segments []string
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		// Need at least one whitespace rune then an uppercase letter.
		if j == i+1 || j >= len(runes) || !unicode.IsUpper(runes[j]) {
			continue
		}
		segments = append(segments, string(runes[start:i+1]))
		start = j
		i = j - 1
	}

	if start < len(runes) {
		segments = append(segments, string(runes[start:]))
	}
	return segments
}
