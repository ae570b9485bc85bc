// Package capture locates captured text inside a file and places new
// captures into it.
//
// Offsets in this package count runes, so that a cursor column matches the
// character column an editor shows.
package capture

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Range is a half-open rune range [Start, End).
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of runes in the range.
func (r Range) Len() int { return r.End - r.Start }

// Position is a 0-based line and character column.
type Position struct {
	Line int `json:"line"`
	Ch   int `json:"ch"`
}

var dmp = diffmatchpatch.New()

// InsertedRange returns the span of next that is not shared with previous,
// found from the longest common prefix and the longest common suffix of the
// remaining tails. It reports false when the texts are equal or the span is
// empty, e.g. for a pure deletion.
func InsertedRange(previous, next string) (Range, bool) {
	if previous == next {
		return Range{}, false
	}
	prev, nxt := []rune(previous), []rune(next)
	prefix := dmp.DiffCommonPrefix(previous, next)
	suffix := dmp.DiffCommonSuffix(string(prev[prefix:]), string(nxt[prefix:]))
	r := Range{Start: prefix, End: len(nxt) - suffix}
	if r.End <= r.Start {
		return Range{}, false
	}
	return r, true
}

// CursorOffset returns the first offset in [start, end) of content that is
// not a line break, or start when the span holds only line breaks. The
// result is clamped to the length of content.
func CursorOffset(content string, start, end int) int {
	runes := []rune(content)
	end = clamp(end, 0, len(runes))
	start = clamp(start, 0, end)
	for i := start; i < end; i++ {
		if runes[i] != '\n' && runes[i] != '\r' {
			return i
		}
	}
	return start
}

// ToLineAndCh converts a rune offset into a line and column. '\r' takes no
// column; '\n' starts a new line.
func ToLineAndCh(content string, offset int) Position {
	var pos Position
	i := 0
	for _, r := range content {
		if i >= offset {
			break
		}
		i++
		switch r {
		case '\r':
		case '\n':
			pos.Line++
			pos.Ch = 0
		default:
			pos.Ch++
		}
	}
	return pos
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
