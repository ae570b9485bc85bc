package capture

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/frontmatter"
)

// ErrNotFound is returned by InsertAfter when no line matches the target.
var ErrNotFound = fmt.Errorf("capture: target line %w", apperr.ErrNotFound)

// InsertOptions controls InsertAfter.
type InsertOptions struct {
	// InsertAtEndOfSection places the value after the last non-blank line
	// of the target's section instead of directly below the target line.
	InsertAtEndOfSection bool
	// CreateIfNotFound adds the target line when it is missing.
	CreateIfNotFound bool
	// CreateAtTop puts a created target right after the front matter
	// instead of at the end of the body.
	CreateAtTop bool
}

// DefaultInsertOptions inserts at the end of the section.
func DefaultInsertOptions() InsertOptions {
	return InsertOptions{InsertAtEndOfSection: true}
}

var headingRe = regexp.MustCompile(`^(#+)\s`)

// InsertAfter inserts value as its own line below the first line of body
// that equals target, ignoring surrounding whitespace.
//
// With InsertAtEndOfSection the section runs until the next heading of the
// same or a higher level (any heading when the target is not a heading) or
// a "---" rule, and the value goes after the last non-blank line before it.
func InsertAfter(target, value, body string, opts InsertOptions) (string, error) {
	lines := strings.Split(body, "\n")
	idx := findLine(lines, target)
	if idx < 0 {
		if !opts.CreateIfNotFound {
			return "", ErrNotFound
		}
		return createTarget(strings.TrimSpace(target), value, body, opts.CreateAtTop), nil
	}

	at := idx + 1
	if opts.InsertAtEndOfSection {
		at = sectionEnd(lines, idx)
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:at]...)
	out = append(out, value)
	out = append(out, lines[at:]...)
	return strings.Join(out, "\n"), nil
}

func findLine(lines []string, target string) int {
	t := strings.TrimSpace(target)
	if t == "" {
		return -1
	}
	re := regexp.MustCompile(`^\s*` + regexp.QuoteMeta(t) + `\s*$`)
	for i, l := range lines {
		if re.MatchString(strings.TrimRight(l, "\r")) {
			return i
		}
	}
	return -1
}

// sectionEnd returns the line index to insert at for the section that
// starts at lines[idx].
func sectionEnd(lines []string, idx int) int {
	level := headingLevel(lines[idx])
	next := len(lines)
	for i := idx + 1; i < len(lines); i++ {
		l := strings.TrimRight(lines[i], "\r")
		if strings.TrimSpace(l) == "---" {
			next = i
			break
		}
		if lv := headingLevel(l); lv > 0 && (level == 0 || lv <= level) {
			next = i
			break
		}
	}
	for i := next - 1; i > idx; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return i + 1
		}
	}
	return idx + 1
}

func headingLevel(line string) int {
	m := headingRe.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	return len(m[1])
}

func createTarget(target, value, body string, top bool) string {
	block := target + "\n" + value
	if top {
		return Prepend(body, block)
	}
	return Append(body, block)
}

// Prepend inserts value as its own line at the top of the body, after any
// front matter.
func Prepend(body, value string) string {
	span, ok := frontmatter.Range(body)
	at := 0
	if ok {
		at = span.BodyStart
	}
	head, rest := body[:at], body[at:]
	if head != "" && !strings.HasSuffix(head, "\n") {
		head += "\n"
	}
	if rest == "" {
		return head + value
	}
	if strings.HasSuffix(value, "\n") {
		return head + value + rest
	}
	return head + value + "\n" + rest
}

// Append adds value as its own line at the end of body.
func Append(body, value string) string {
	if body == "" || strings.HasSuffix(body, "\n") {
		return body + value
	}
	return body + "\n" + value
}
