package frontmatter

import "strings"

// MatchContext describes where a placeholder match sits relative to the
// front matter. Offsets are bytes into the classified text.
type MatchContext struct {
	InYAML bool
	// Quoted is set when the match is wrapped in a matching pair of '"' or
	// '\'' characters.
	Quoted     bool
	LineStart  int
	LineEnd    int
	BaseIndent int
	// KeyValuePosition is set when the match is the entire value of a
	// "key: value" line, e.g. "title: {{VALUE:x}}" but not
	// "summary: intro {{VALUE:x}} outro".
	KeyValuePosition bool
}

// Line returns the enclosing line of the match.
func (c MatchContext) Line(text string) string {
	if c.LineEnd < c.LineStart || c.LineEnd > len(text) {
		return ""
	}
	return text[c.LineStart:c.LineEnd]
}

// Classify reports the YAML context of text[start:end]. span and ok come
// from Range, computed once per text.
func Classify(text string, start, end int, span Span, ok bool) MatchContext {
	var ctx MatchContext
	if start < 0 || end > len(text) || start > end {
		return ctx
	}
	ctx.Quoted = isQuoted(text, start, end)
	if !ok || !span.Contains(start) {
		return ctx
	}
	ctx.InYAML = true

	ctx.LineStart = strings.LastIndexByte(text[:start], '\n') + 1
	ctx.LineEnd = len(text)
	if i := strings.IndexByte(text[end:], '\n'); i >= 0 {
		ctx.LineEnd = end + i
	}
	ctx.BaseIndent = indentWidth(text[ctx.LineStart:start])

	before := stripOne(text[ctx.LineStart:start], false)
	after := stripOne(text[end:ctx.LineEnd], true)
	ctx.KeyValuePosition = strings.HasSuffix(strings.TrimRight(before, " \t"), ":") &&
		strings.TrimSpace(after) == ""
	return ctx
}

func isQuoted(text string, start, end int) bool {
	if start == 0 || end >= len(text) {
		return false
	}
	q := text[start-1]
	return (q == '"' || q == '\'') && text[end] == q
}

// stripOne removes a single quote character from the end (leading=false)
// or start (leading=true) of s.
func stripOne(s string, leading bool) string {
	if s == "" {
		return s
	}
	if leading {
		if s[0] == '"' || s[0] == '\'' {
			return s[1:]
		}
		return s
	}
	if last := s[len(s)-1]; last == '"' || last == '\'' {
		return s[:len(s)-1]
	}
	return s
}

func indentWidth(s string) int {
	n := 0
	for n < len(s) && (s[n] == ' ' || s[n] == '\t') {
		n++
	}
	return n
}
