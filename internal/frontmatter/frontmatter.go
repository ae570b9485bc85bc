// Package frontmatter locates, classifies and rewrites the YAML front matter
// block at the top of a Markdown note.
package frontmatter

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Span locates a front matter block by byte offsets.
//
//	Start       first byte of the opening "---" line (always 0)
//	InnerStart  first byte after the opening line's newline
//	InnerEnd    first byte of the closing delimiter line
//	End         one past the closing delimiter (before its newline)
//	BodyStart   first byte after the closing line's newline
type Span struct {
	Start      int
	InnerStart int
	InnerEnd   int
	End        int
	BodyStart  int
}

// Contains reports whether offset lies inside the block.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Range finds the front matter block of text. The opening line must be the
// first line and read "---"; the block closes at the nearest following line
// that reads "---" or "...". Surrounding whitespace on either delimiter line
// is ignored. Without a closing line there is no front matter.
func Range(text string) (Span, bool) {
	first, next := line(text, 0)
	if strings.TrimSpace(first) != "---" || next < 0 {
		return Span{}, false
	}
	pos := next
	for pos >= 0 && pos <= len(text) {
		l, after := line(text, pos)
		trimmed := strings.TrimSpace(l)
		if trimmed == "---" || trimmed == "..." {
			end := pos + len(strings.TrimRight(l, "\r"))
			body := len(text)
			if after >= 0 {
				body = after
			}
			return Span{Start: 0, InnerStart: next, InnerEnd: pos, End: end, BodyStart: body}, true
		}
		if after < 0 {
			break
		}
		pos = after
	}
	return Span{}, false
}

// line returns the line starting at pos (without its '\n') and the offset
// of the following line, or -1 when this is the last line.
func line(text string, pos int) (string, int) {
	if i := strings.IndexByte(text[pos:], '\n'); i >= 0 {
		return text[pos : pos+i], pos + i + 1
	}
	return text[pos:], -1
}

// Split separates the YAML block (without delimiters) from the body. When
// there is no front matter, body is text and ok is false.
func Split(text string) (block, body string, ok bool) {
	span, ok := Range(text)
	if !ok {
		return "", text, false
	}
	return text[span.InnerStart:span.InnerEnd], text[span.BodyStart:], true
}

// Parse decodes the front matter into a map. Invalid YAML is treated as
// having no front matter; the returned body is then the whole text.
func Parse(text string) (map[string]any, string) {
	block, body, ok := Split(text)
	if !ok {
		return nil, text
	}
	var fm map[string]any
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return nil, text
	}
	return fm, body
}
