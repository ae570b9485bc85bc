// Package placeholder tokenizes the "{{KIND:ARG}}" placeholder language used
// by capture and note templates.
//
// Grammar:
//
//	token    = "{{" kind [ rest ] "}}"
//	kind     = letter { letter }
//	rest     = any characters except "}}", "\n" and "\r"
//
// A token never spans lines. The first "}}" after "{{" closes the token.
package placeholder

import (
	"strings"
)

// Well-known kinds. Matching is case-insensitive; Token.Kind is upper-cased.
const (
	KindValue       = "VALUE"
	KindName        = "NAME"
	KindDate        = "DATE"
	KindVDate       = "VDATE"
	KindTemplate    = "TEMPLATE"
	KindMacro       = "MACRO"
	KindTitle       = "TITLE"
	KindLinkCurrent = "LINKCURRENT"
)

// Token is one placeholder occurrence. Start and End are byte offsets of
// the opening "{{" and one past the closing "}}".
type Token struct {
	Start int
	End   int
	Kind  string
	// Rest is everything after the kind up to the closing braces, e.g.
	// ":name|default" or "+3".
	Rest string
	// Text is the token exactly as written.
	Text string
}

// Arg returns the text after the ':' separator and whether one was present.
func (t Token) Arg() (string, bool) {
	if strings.HasPrefix(t.Rest, ":") {
		return t.Rest[1:], true
	}
	return "", false
}

// Next returns the first token starting at or after byte offset from.
// Brace runs that do not form a token are skipped.
func Next(text string, from int) (Token, bool) {
	i := from
	for i < len(text) {
		open := strings.Index(text[i:], "{{")
		if open < 0 {
			return Token{}, false
		}
		start := i + open
		// "{{{x}}" tokenizes as "{" + "{{x}}".
		for start+2 < len(text) && text[start+2] == '{' {
			start++
		}
		bodyStart := start + 2
		end, ok := closeIndex(text, bodyStart)
		if !ok {
			i = start + 2
			continue
		}
		body := text[bodyStart:end]
		kind, rest := splitKind(body)
		if kind == "" {
			i = start + 2
			continue
		}
		return Token{
			Start: start,
			End:   end + 2,
			Kind:  strings.ToUpper(kind),
			Rest:  rest,
			Text:  text[start : end+2],
		}, true
	}
	return Token{}, false
}

// All returns every token in text, left to right.
func All(text string) []Token {
	var out []Token
	pos := 0
	for {
		tok, ok := Next(text, pos)
		if !ok {
			return out
		}
		out = append(out, tok)
		pos = tok.End
	}
}

// closeIndex finds the "}}" closing a body that starts at from. It fails
// when a line break comes first.
func closeIndex(text string, from int) (int, bool) {
	for j := from; j < len(text); j++ {
		switch text[j] {
		case '\n', '\r':
			return 0, false
		case '}':
			if j+1 < len(text) && text[j+1] == '}' {
				return j, true
			}
		}
	}
	return 0, false
}

func splitKind(body string) (string, string) {
	n := 0
	for n < len(body) && isLetter(body[n]) {
		n++
	}
	return body[:n], body[n:]
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
