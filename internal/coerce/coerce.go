// Package coerce turns resolved variable values into the typed values that
// are written into YAML front matter.
package coerce

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/starford/scribe/internal/vars"
)

// DatePrefix marks a string that carries an ISO-8601 instant, letting date
// values travel through string-only variables.
const DatePrefix = "@date:"

// CoerceYAMLValue converts "@date:<ISO-8601>" into a Date value. Anything
// else, including an unparseable date, is returned unchanged.
func CoerceYAMLValue(v vars.Value) vars.Value {
	s, ok := v.Str()
	if !ok || !strings.HasPrefix(s, DatePrefix) {
		return v
	}
	t, ok := parseISO(strings.TrimPrefix(s, DatePrefix))
	if !ok {
		return v
	}
	return vars.Date(t)
}

// EncodeDate returns the "@date:" encoding of t.
func EncodeDate(t time.Time) string {
	return DatePrefix + t.UTC().Format(vars.ISOLayout)
}

var isoLayouts = []string{
	time.RFC3339Nano,
	vars.ISOLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseISO(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Multi-value property types. Array and comma inference only runs for
// these, or when the declared type is unknown.
var multiValueTypes = map[string]bool{
	"multitext": true,
	"tags":      true,
	"aliases":   true,
	"list":      true,
}

// IsMultiValueType reports whether a declared property type holds lists.
func IsMultiValueType(declared string) bool {
	return multiValueTypes[strings.ToLower(declared)]
}

var bulletRe = regexp.MustCompile(`^-\s+`)

// ParseStructuredPropertyValue infers a typed value from plain string
// output, in order of precedence:
//
//  1. every non-empty line is a "- " bullet (real newlines or a literal
//     "\n" sequence): a list of the bullet texts;
//  2. the trimmed string is a JSON array or object: the decoded value;
//  3. the string splits on top-level commas into at least two non-empty
//     segments: a list of the trimmed segments.
//
// A known declaredType that is not multi-value keeps the string as is.
func ParseStructuredPropertyValue(s, declaredType string) vars.Value {
	if declaredType != "" && !IsMultiValueType(declaredType) {
		return vars.String(s)
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return vars.String(s)
	}
	if items, ok := parseBullets(trimmed); ok {
		return vars.Strings(items...)
	}
	if v, ok := parseJSON(trimmed); ok {
		return v
	}
	if parts := SplitTopLevel(trimmed, ','); len(parts) >= 2 {
		var items []string
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		if len(items) >= 2 {
			return vars.Strings(items...)
		}
	}
	return vars.String(s)
}

func parseBullets(s string) ([]string, bool) {
	normalized := strings.ReplaceAll(s, `\n`, "\n")
	var items []string
	for _, line := range strings.Split(normalized, "\n") {
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))
		if line == "" {
			continue
		}
		loc := bulletRe.FindStringIndex(line)
		if loc == nil {
			return nil, false
		}
		if item := strings.TrimSpace(line[loc[1]:]); item != "" {
			items = append(items, item)
		}
	}
	return items, len(items) > 0
}

func parseJSON(s string) (vars.Value, bool) {
	first, last := s[0], s[len(s)-1]
	if !(first == '[' && last == ']') && !(first == '{' && last == '}') {
		return vars.Value{}, false
	}
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return vars.Value{}, false
	}
	if obj, ok := decoded.(map[string]any); ok {
		// Objects have no typed representation; keep the JSON text.
		b, err := json.Marshal(obj)
		if err != nil {
			return vars.Value{}, false
		}
		return vars.String(string(b)), true
	}
	return vars.FromAny(decoded), true
}

// SplitTopLevel splits s on sep, ignoring separators nested inside
// (), [], {}, <> or quotes. "[[Page, One]]" is a single segment.
func SplitTopLevel(s string, sep rune) []string {
	var (
		parts []string
		depth int
		quote rune
		start int
	)
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(' || r == '[' || r == '{' || r == '<':
			depth++
		case r == ')' || r == ']' || r == '}' || r == '>':
			if depth > 0 {
				depth--
			}
		case r == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + len(string(r))
		}
	}
	return append(parts, s[start:])
}
