package placeholder

import (
	"errors"
	"strings"

	"github.com/starford/scribe/internal/vars"
)

// ErrEmptyName marks a VALUE token whose variable name is empty. Expansion
// stops at such a token.
var ErrEmptyName = errors.New("placeholder: empty variable name")

// ModifierCustom enables free-text entry in a suggester.
const ModifierCustom = "custom"

// ValueSpec is the parsed body of a "{{VALUE:...}}" token.
//
//	{{VALUE:name}}              prompt
//	{{VALUE:name|default}}      prompt with default
//	{{VALUE:a,b,c}}             suggester
//	{{VALUE:a,b,c|custom}}      suggester with free text
//	{{VALUE:a,b,c|Default}}     suggester with default
type ValueSpec struct {
	// NameSpec is the text before the first '|', untouched.
	NameSpec string
	// Key is the memo key: the base name of NameSpec (text before '@').
	// For suggesters the entries are not trimmed, so "a, b" and "a,b"
	// are different variables.
	Key string
	// Hint is the text after '@' in a single-name spec.
	Hint string
	// Options holds the trimmed, non-empty suggester entries.
	Options []string
	// Modifier is the trimmed text after the first '|'.
	Modifier    string
	Default     string
	AllowCustom bool
}

// IsChoice reports whether the spec lists more than one name.
func (s ValueSpec) IsChoice() bool { return len(s.Options) > 1 || strings.Contains(s.NameSpec, ",") }

// ParseValue parses the argument of a VALUE token (the text after ':').
func ParseValue(arg string) (ValueSpec, error) {
	nameSpec, modifier, _ := strings.Cut(arg, "|")
	modifier = strings.TrimSpace(modifier)

	spec := ValueSpec{NameSpec: nameSpec, Modifier: modifier}

	if !strings.Contains(nameSpec, ",") {
		if strings.TrimSpace(nameSpec) == "" {
			return ValueSpec{}, ErrEmptyName
		}
		spec.Key = vars.BaseName(nameSpec)
		spec.Hint = vars.Hint(nameSpec)
		if strings.TrimSpace(spec.Key) == "" {
			return ValueSpec{}, ErrEmptyName
		}
		spec.Default = modifier
		return spec, nil
	}

	for _, part := range strings.Split(nameSpec, ",") {
		if opt := strings.TrimSpace(part); opt != "" {
			spec.Options = append(spec.Options, opt)
		}
	}
	if len(spec.Options) == 0 {
		return ValueSpec{}, ErrEmptyName
	}
	spec.Key = vars.BaseName(nameSpec)
	if strings.EqualFold(modifier, ModifierCustom) {
		spec.AllowCustom = true
	} else {
		spec.Default = modifier
	}
	return spec, nil
}
