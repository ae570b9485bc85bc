package formatter

import "strings"

// UnescapeLineBreaks interprets "\n" as a newline and "\\" as a single
// backslash in already-expanded text. A backslash before any other
// character, or at the very end, is kept. The scan is single pass, so a
// newline produced by "\n" is never looked at again.
func UnescapeLineBreaks(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
			i++
		case '\\':
			b.WriteByte('\\')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
