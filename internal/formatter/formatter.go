// Package formatter expands the placeholders of a capture template.
//
// A Pass owns the variables resolved during one run. Every variable is
// resolved at most once per pass; later occurrences of the same name reuse
// the memoized value.
package formatter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/coerce"
	"github.com/starford/scribe/internal/frontmatter"
	"github.com/starford/scribe/internal/placeholder"
	"github.com/starford/scribe/internal/vars"
)

// ValueName is the reserved variable holding the capture's primary value,
// referenced by {{VALUE}} and {{NAME}}.
const ValueName = "value"

// MaxTemplateDepth bounds nested {{TEMPLATE:...}} includes.
const MaxTemplateDepth = 8

var (
	ErrTemplateDepth = errors.New("formatter: template include depth exceeded")
	ErrNoPrompter    = errors.New("formatter: no prompter configured")
)

// PromptRequest asks for a single free-text value.
type PromptRequest struct {
	Name    string
	Hint    string
	Default string
}

// ChoiceRequest asks the user to pick one of Options, or type any text when
// AllowCustom is set.
type ChoiceRequest struct {
	Key         string
	Options     []string
	AllowCustom bool
	Default     string
}

// Prompter collects answers from the user. Dismissing a prompt must be
// reported as apperr.ErrCancelled.
type Prompter interface {
	Prompt(ctx context.Context, req PromptRequest) (string, error)
	Choose(ctx context.Context, req ChoiceRequest) (string, error)
}

// TemplateLoader returns the raw text of a template referenced by
// {{TEMPLATE:path}}.
type TemplateLoader interface {
	Load(ctx context.Context, path string) (string, error)
}

// MacroRunner runs a named user macro and returns its result, which may be
// any JSON-like Go value.
type MacroRunner interface {
	Run(ctx context.Context, name string) (any, error)
}

// Pass is the state of one formatting run.
type Pass struct {
	prompter  Prompter
	templates TemplateLoader
	macros    MacroRunner
	now       func() time.Time
	title     string
	types     map[string]string
	infer     bool
	logger    *slog.Logger

	memo      *vars.Memo
	collector *coerce.Collector
	depth     int
}

// Option configures a Pass.
type Option func(*Pass)

// WithTemplates enables {{TEMPLATE:path}} includes.
func WithTemplates(l TemplateLoader) Option { return func(p *Pass) { p.templates = l } }

// WithMacros enables {{MACRO:name}}.
func WithMacros(r MacroRunner) Option { return func(p *Pass) { p.macros = r } }

// WithClock overrides time.Now for DATE and VDATE.
func WithClock(now func() time.Time) Option { return func(p *Pass) { p.now = now } }

// WithTitle sets the title used by {{TITLE}} and {{LINKCURRENT}}.
func WithTitle(title string) Option { return func(p *Pass) { p.title = title } }

// WithValue presets the capture value used by {{VALUE}} and {{NAME}}.
func WithValue(v string) Option {
	return func(p *Pass) { p.memo.Set(ValueName, vars.String(v)) }
}

// WithVariables presets variables so that they are never prompted for.
func WithVariables(values map[string]vars.Value) Option {
	return func(p *Pass) {
		for k, v := range values {
			p.memo.Set(k, v)
		}
	}
}

// WithPropertyTypes sets the declared front matter property types and
// whether plain string answers in key-value position are inspected for
// lists.
func WithPropertyTypes(types map[string]string, infer bool) Option {
	return func(p *Pass) {
		p.types = types
		p.infer = infer
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(p *Pass) { p.logger = l } }

// NewPass returns a pass that asks prompter for unknown variables.
func NewPass(prompter Prompter, opts ...Option) *Pass {
	p := &Pass{
		prompter:  prompter,
		now:       time.Now,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		memo:      vars.NewMemo(nil),
		collector: coerce.NewCollector(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// SetTitle sets the title once the target file is known, e.g. after the
// file name itself has been formatted.
func (p *Pass) SetTitle(title string) { p.title = title }

// Memo exposes the variables resolved so far.
func (p *Pass) Memo() *vars.Memo { return p.memo }

// Properties drains the typed front matter properties collected while
// formatting. It returns them only once.
func (p *Pass) Properties() []vars.Property { return p.collector.Drain() }

// Format expands every placeholder in tmpl, left to right.
func (p *Pass) Format(ctx context.Context, tmpl string) (string, error) {
	out, err := p.expand(ctx, tmpl)
	if err != nil {
		if errors.Is(err, apperr.ErrCancelled) {
			return "", apperr.ErrCancelled
		}
		return "", err
	}
	return out, nil
}

func (p *Pass) expand(ctx context.Context, text string) (string, error) {
	pos := 0
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		tok, ok := placeholder.Next(text, pos)
		if !ok {
			return text, nil
		}
		repl, handled, err := p.resolve(ctx, text, tok)
		if errors.Is(err, placeholder.ErrEmptyName) {
			p.logger.Debug("formatter: unparseable placeholder, stopping", slog.String("token", tok.Text))
			return text, nil
		}
		if err != nil {
			return "", err
		}
		if !handled {
			pos = tok.End
			continue
		}
		text = text[:tok.Start] + repl + text[tok.End:]
		pos = tok.Start + len(repl)
	}
}

// resolve returns the replacement for tok. handled is false for tokens
// that are left verbatim.
func (p *Pass) resolve(ctx context.Context, text string, tok placeholder.Token) (string, bool, error) {
	arg, hasArg := tok.Arg()
	switch tok.Kind {
	case placeholder.KindValue, placeholder.KindName:
		if tok.Rest == "" {
			v, err := p.captureValue(ctx)
			if err != nil {
				return "", false, err
			}
			return p.render(text, tok, v, ValueName), true, nil
		}
		if !hasArg {
			return "", false, nil
		}
		return p.resolveValue(ctx, text, tok, arg)
	case placeholder.KindDate:
		format, offset, ok := splitDateArg(tok.Rest)
		if !ok {
			return "", false, nil
		}
		return FormatDate(p.now().AddDate(0, 0, offset), format), true, nil
	case placeholder.KindVDate:
		if !hasArg {
			return "", false, nil
		}
		return p.resolveVDate(ctx, text, tok, arg)
	case placeholder.KindTemplate:
		if !hasArg || p.templates == nil {
			return "", false, nil
		}
		out, err := p.include(ctx, strings.TrimSpace(arg))
		return out, err == nil, err
	case placeholder.KindMacro:
		if !hasArg || p.macros == nil {
			return "", false, nil
		}
		return p.resolveMacro(ctx, text, tok, strings.TrimSpace(arg))
	case placeholder.KindTitle:
		if tok.Rest != "" {
			return "", false, nil
		}
		return p.title, true, nil
	case placeholder.KindLinkCurrent:
		if tok.Rest != "" {
			return "", false, nil
		}
		if p.title == "" {
			return "", true, nil
		}
		return "[[" + p.title + "]]", true, nil
	}
	return "", false, nil
}

func (p *Pass) captureValue(ctx context.Context) (vars.Value, error) {
	if v, ok := p.memo.Get(ValueName); ok {
		return v, nil
	}
	if p.prompter == nil {
		return vars.Value{}, ErrNoPrompter
	}
	s, err := p.prompter.Prompt(ctx, PromptRequest{Name: ValueName})
	if err != nil {
		return vars.Value{}, fmt.Errorf("formatter: prompt %q: %w", ValueName, err)
	}
	v := vars.String(s)
	p.memo.Set(ValueName, v)
	return v, nil
}

func (p *Pass) resolveValue(ctx context.Context, text string, tok placeholder.Token, arg string) (string, bool, error) {
	spec, err := placeholder.ParseValue(arg)
	if err != nil {
		return "", false, err
	}
	v, ok := p.memo.Get(spec.Key)
	if !ok {
		if p.prompter == nil {
			return "", false, ErrNoPrompter
		}
		var answer string
		if spec.IsChoice() {
			answer, err = p.prompter.Choose(ctx, ChoiceRequest{
				Key:         spec.Key,
				Options:     spec.Options,
				AllowCustom: spec.AllowCustom,
				Default:     spec.Default,
			})
		} else {
			answer, err = p.prompter.Prompt(ctx, PromptRequest{
				Name:    spec.Key,
				Hint:    spec.Hint,
				Default: spec.Default,
			})
		}
		if err != nil {
			return "", false, fmt.Errorf("formatter: prompt %q: %w", spec.Key, err)
		}
		if answer == "" && spec.Default != "" {
			answer = spec.Default
		}
		v = vars.String(answer)
		p.memo.Set(spec.Key, v)
	}
	return p.render(text, tok, v, spec.Key), true, nil
}

func (p *Pass) resolveVDate(ctx context.Context, text string, tok placeholder.Token, arg string) (string, bool, error) {
	spec, dflt, _ := strings.Cut(arg, "|")
	name, format, _ := strings.Cut(spec, ",")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false, placeholder.ErrEmptyName
	}
	if strings.TrimSpace(format) == "" {
		format = DefaultDateFormat
	}

	v, ok := p.memo.Get(name)
	if ok {
		v = coerce.CoerceYAMLValue(v)
		if s, isStr := v.Str(); isStr {
			t, err := ParseDate(s, p.now())
			if err != nil {
				return "", false, err
			}
			v = vars.Date(t)
		}
	} else {
		if p.prompter == nil {
			return "", false, ErrNoPrompter
		}
		answer, err := p.prompter.Prompt(ctx, PromptRequest{
			Name:    name,
			Hint:    "date",
			Default: strings.TrimSpace(dflt),
		})
		if err != nil {
			return "", false, fmt.Errorf("formatter: prompt %q: %w", name, err)
		}
		if answer == "" {
			answer = strings.TrimSpace(dflt)
		}
		t, err := ParseDate(answer, p.now())
		if err != nil {
			return "", false, err
		}
		v = vars.Date(t)
		p.memo.Set(name, v)
	}

	t, isDate := v.Time()
	if !isDate {
		return p.render(text, tok, v, name), true, nil
	}
	p.collect(text, tok, v, name)
	return FormatDate(t, format), true, nil
}

func (p *Pass) resolveMacro(ctx context.Context, text string, tok placeholder.Token, name string) (string, bool, error) {
	if name == "" {
		return "", false, nil
	}
	v, ok := p.memo.Get(name)
	if !ok {
		out, err := p.macros.Run(ctx, name)
		if err != nil {
			return "", false, fmt.Errorf("formatter: macro %q: %w", name, err)
		}
		v = vars.FromAny(out)
		p.memo.Set(name, v)
	}
	return p.render(text, tok, v, name), true, nil
}

func (p *Pass) include(ctx context.Context, path string) (string, error) {
	if p.depth >= MaxTemplateDepth {
		return "", fmt.Errorf("%w: %s", ErrTemplateDepth, path)
	}
	raw, err := p.templates.Load(ctx, path)
	if err != nil {
		return "", fmt.Errorf("formatter: load template %q: %w", path, err)
	}
	p.depth++
	defer func() { p.depth-- }()
	return p.expand(ctx, raw)
}

// render returns the text that replaces tok for value v, collecting typed
// values that form the whole value of a front matter key.
func (p *Pass) render(text string, tok placeholder.Token, v vars.Value, key string) string {
	v = coerce.CoerceYAMLValue(v)
	mc := p.collect(text, tok, v, key)
	out := v.String()
	if mc.InYAML && mc.Quoted {
		out = escapeQuoted(out, text[tok.Start-1])
	}
	return out
}

func (p *Pass) collect(text string, tok placeholder.Token, v vars.Value, key string) frontmatter.MatchContext {
	span, ok := frontmatter.Range(text)
	mc := frontmatter.Classify(text, tok.Start, tok.End, span, ok)
	if !mc.InYAML || !mc.KeyValuePosition {
		return mc
	}
	line := mc.Line(text)
	if s, isStr := v.Str(); isStr && p.infer && !mc.Quoted {
		declared := p.types[coerce.PropertyKey(line)]
		v = coerce.ParseStructuredPropertyValue(s, declared)
	}
	if k, ok := p.collector.MaybeCollect(v, key, line, true); ok {
		p.logger.Debug("formatter: collected typed property", slog.String("key", k), slog.String("kind", v.Kind().String()))
	}
	return mc
}

func escapeQuoted(s string, quote byte) string {
	if quote == '\'' {
		return strings.ReplaceAll(s, "'", "''")
	}
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
