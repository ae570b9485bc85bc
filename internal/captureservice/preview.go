package captureservice

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffLine is one line of a preview diff.
type DiffLine struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	OldLine int    `json:"old_line,omitempty"`
	NewLine int    `json:"new_line,omitempty"`
}

const (
	LineContext = "context"
	LineAdded   = "added"
	LineRemoved = "removed"
)

// PreviewContext is the number of unchanged lines kept around each change.
const PreviewContext = 2

// LineDiff returns a line diff of before and after, keeping only
// PreviewContext unchanged lines around each change.
func LineDiff(before, after string) []DiffLine {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var lines []DiffLine
	oldLine, newLine := 1, 1
	for _, d := range diffs {
		chunk := strings.Split(d.Text, "\n")
		if chunk[len(chunk)-1] == "" {
			chunk = chunk[:len(chunk)-1]
		}
		for _, text := range chunk {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				lines = append(lines, DiffLine{Type: LineContext, Text: text, OldLine: oldLine, NewLine: newLine})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				lines = append(lines, DiffLine{Type: LineRemoved, Text: text, OldLine: oldLine})
				oldLine++
			case diffmatchpatch.DiffInsert:
				lines = append(lines, DiffLine{Type: LineAdded, Text: text, NewLine: newLine})
				newLine++
			}
		}
	}
	return trimContext(lines, PreviewContext)
}

func trimContext(lines []DiffLine, keep int) []DiffLine {
	near := make([]bool, len(lines))
	for i, l := range lines {
		if l.Type == LineContext {
			continue
		}
		for j := max(0, i-keep); j <= min(len(lines)-1, i+keep); j++ {
			near[j] = true
		}
	}
	out := lines[:0:0]
	for i, l := range lines {
		if near[i] {
			out = append(out, l)
		}
	}
	return out
}
