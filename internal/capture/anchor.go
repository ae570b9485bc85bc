package capture

import (
	"slices"
)

// Re-anchoring tunables. The window sizes and weights are empirical.
var (
	// AnchorWindows are the context lengths tried, longest first.
	AnchorWindows = []int{80, 40, 20, 10, 5, 2, 1}
	// MaxAnchorCandidates caps the occurrences scored per window. The
	// occurrences nearest the estimate are scored first.
	MaxAnchorCandidates = 64
)

// MapBoundary finds where offset boundary of previous ended up in next,
// after next was rewritten by something whose edits are unknown. inserted
// is the text the capture placed at boundary.
//
// For each window size the text just before the boundary is looked up
// verbatim in next; the end of each occurrence is a candidate. When the
// "before" context has no occurrence, occurrences of the text just after
// the boundary are used instead, moved back by the length of inserted.
// Candidates are scored by their distance from the proportionally scaled
// boundary plus how far past the candidate the "after" context shows up.
// The first window size that yields a candidate returns the best one.
//
// ok reports an exact anchor: a "before" match, or a boundary of 0 in a
// text that still starts with inserted. Anchors found through the "after"
// context only are estimates. When nothing matches, a boundary of 0 maps
// to 0; any other boundary maps to the scaled approximation.
func MapBoundary(previous, next string, boundary int, inserted string) (int, bool) {
	prev, nxt, ins := []rune(previous), []rune(next), []rune(inserted)
	boundary = clamp(boundary, 0, len(prev))
	approx := boundary
	if len(prev) > 0 {
		approx = boundary * len(nxt) / len(prev)
	}
	approx = clamp(approx, 0, len(nxt))

	if boundary == 0 && len(ins) > 0 && hasRunesAt(nxt, ins, 0) {
		return 0, true
	}

	for _, w := range AnchorWindows {
		before := prev[max(0, boundary-w):boundary]
		after := prev[boundary:min(len(prev), boundary+w)]
		if len(before) > 0 {
			ends := occurrences(nxt, before)
			for i := range ends {
				ends[i] += len(before)
			}
			if best, ok := bestCandidate(nxt, ends, after, approx); ok {
				return best, true
			}
		}
		if len(after) > 0 {
			starts := occurrences(nxt, after)
			for i := range starts {
				starts[i] = max(0, starts[i]-len(ins))
			}
			if best, ok := bestCandidate(nxt, starts, after, approx); ok {
				return best, false
			}
		}
	}
	if boundary == 0 {
		return 0, true
	}
	return approx, false
}

func bestCandidate(text []rune, candidates []int, after []rune, approx int) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	slices.SortStableFunc(candidates, func(a, b int) int {
		return abs(a-approx) - abs(b-approx)
	})
	if len(candidates) > MaxAnchorCandidates {
		candidates = candidates[:MaxAnchorCandidates]
	}

	miss := len(text) + 1
	best, bestScore := -1, 0
	for _, c := range candidates {
		dist := abs(c - approx)
		if best >= 0 && dist >= bestScore {
			break
		}
		score := dist
		if len(after) > 0 {
			if j := indexRunes(text, after, c); j >= 0 {
				score += j - c
			} else {
				score += miss
			}
		}
		if best < 0 || score < bestScore {
			best, bestScore = c, score
		}
	}
	return best, true
}

// occurrences returns the start offsets of needle in text.
func occurrences(text, needle []rune) []int {
	var out []int
	for from := 0; ; {
		i := indexRunes(text, needle, from)
		if i < 0 {
			return out
		}
		out = append(out, i)
		from = i + 1
	}
}

// indexRunes returns the first offset >= from at which needle occurs in
// text, or -1.
func indexRunes(text, needle []rune, from int) int {
	if len(needle) == 0 {
		return from
	}
	for i := max(from, 0); i+len(needle) <= len(text); i++ {
		if hasRunesAt(text, needle, i) {
			return i
		}
	}
	return -1
}

// hasRunesAt reports whether text holds needle at offset i.
func hasRunesAt(text, needle []rune, i int) bool {
	if i < 0 || i+len(needle) > len(text) {
		return false
	}
	for j, r := range needle {
		if text[i+j] != r {
			return false
		}
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
