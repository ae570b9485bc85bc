package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/formatter"
)

type styles struct {
	label  lipgloss.Style
	hint   lipgloss.Style
	option lipgloss.Style
	index  lipgloss.Style
	warn   lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		label:  lipgloss.NewStyle().Bold(true),
		hint:   lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "8", Dark: "7"}),
		option: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "12", Dark: "12"}),
		index:  lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "8", Dark: "7"}),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

// Terminal asks on a line-oriented terminal. End of input cancels.
//
// A suggester lists its options; the answer is an option number, an
// option, or a fuzzy query that narrows the list until one option is left.
type Terminal struct {
	in     *bufio.Reader
	out    io.Writer
	styles styles
}

var _ formatter.Prompter = (*Terminal)(nil)

// NewTerminal reads answers from in and writes prompts to out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, styles: defaultStyles()}
}

func (t *Terminal) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := t.in.ReadString('\n')
	if errors.Is(err, io.EOF) && line == "" {
		return "", apperr.ErrCancelled
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("prompt: read: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Prompt asks for one value. An empty answer returns "", leaving the
// default to the caller.
func (t *Terminal) Prompt(ctx context.Context, req formatter.PromptRequest) (string, error) {
	label := t.styles.label.Render(req.Name)
	if req.Hint != "" {
		label += " " + t.styles.hint.Render("("+req.Hint+")")
	}
	if req.Default != "" {
		label += " " + t.styles.hint.Render("["+req.Default+"]")
	}
	fmt.Fprintf(t.out, "%s: ", label)
	return t.readLine(ctx)
}

// Choose runs the suggester. An empty answer keeps the default, takes the
// only option left, or asks again.
func (t *Terminal) Choose(ctx context.Context, req formatter.ChoiceRequest) (string, error) {
	options := req.Options
	for {
		t.list(options)
		label := "choose"
		if req.AllowCustom {
			label = "choose or type"
		}
		if req.Default != "" {
			label += " " + t.styles.hint.Render("["+req.Default+"]")
		}
		fmt.Fprintf(t.out, "%s: ", t.styles.label.Render(label))

		line, err := t.readLine(ctx)
		if err != nil {
			return "", err
		}
		answer := strings.TrimSpace(line)
		if answer == "" {
			switch {
			case req.Default != "":
				return "", nil
			case len(options) == 1:
				return options[0], nil
			}
			fmt.Fprintln(t.out, t.styles.warn.Render("pick an option"))
			continue
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		for _, o := range options {
			if strings.EqualFold(o, answer) {
				return o, nil
			}
		}

		narrowed := Narrow(answer, options)
		switch {
		case len(narrowed) == 1 && !req.AllowCustom:
			return narrowed[0], nil
		case req.AllowCustom:
			return answer, nil
		case len(narrowed) == 0:
			fmt.Fprintln(t.out, t.styles.warn.Render("no match for "+strconv.Quote(answer)))
		default:
			options = narrowed
		}
	}
}

func (t *Terminal) list(options []string) {
	for i, o := range options {
		fmt.Fprintf(t.out, "  %s %s\n", t.styles.index.Render(strconv.Itoa(i+1)+"."), t.styles.option.Render(o))
	}
}

// Narrow returns the options that fuzzy-match query, best match first.
func Narrow(query string, options []string) []string {
	matches := fuzzy.Find(query, options)
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Str
	}
	return out
}
