package formatter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/vars"
)

type fakePrompter struct {
	answers map[string]string
	err     error
	prompts []PromptRequest
	choices []ChoiceRequest
}

func (f *fakePrompter) Prompt(_ context.Context, req PromptRequest) (string, error) {
	f.prompts = append(f.prompts, req)
	if f.err != nil {
		return "", f.err
	}
	return f.answers[req.Name], nil
}

func (f *fakePrompter) Choose(_ context.Context, req ChoiceRequest) (string, error) {
	f.choices = append(f.choices, req)
	if f.err != nil {
		return "", f.err
	}
	return f.answers[req.Key], nil
}

type mapLoader map[string]string

func (m mapLoader) Load(_ context.Context, path string) (string, error) {
	s, ok := m[path]
	if !ok {
		return "", apperr.ErrNotFound
	}
	return s, nil
}

type macroFunc func(name string) (any, error)

func (f macroFunc) Run(_ context.Context, name string) (any, error) { return f(name) }

var fixedNow = time.Date(2025, 3, 7, 14, 5, 9, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestFormatMemoizesValues(t *testing.T) {
	fp := &fakePrompter{answers: map[string]string{"who": "Ada"}}
	p := NewPass(fp)
	got, err := p.Format(context.Background(), "{{VALUE:who}} met {{value:who@person}}.")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if got != "Ada met Ada." {
		t.Errorf("got %q", got)
	}
	if len(fp.prompts) != 1 {
		t.Errorf("prompted %d times, want 1", len(fp.prompts))
	}
	if v, ok := p.Memo().Get("who"); !ok || !v.Equal(vars.String("Ada")) {
		t.Errorf("memo = %v, %v", v, ok)
	}
}

func TestFormatDefaults(t *testing.T) {
	fp := &fakePrompter{answers: map[string]string{}}
	got, err := NewPass(fp).Format(context.Background(), "[{{VALUE:mood|fine}}]")
	if err != nil {
		t.Fatal(err)
	}
	if got != "[fine]" {
		t.Errorf("got %q", got)
	}
	if fp.prompts[0].Default != "fine" {
		t.Errorf("default not passed to prompter: %+v", fp.prompts[0])
	}
}

func TestFormatChoiceModifiers(t *testing.T) {
	fp := &fakePrompter{answers: map[string]string{}}
	p := NewPass(fp)
	got, err := p.Format(context.Background(), "{{VALUE:Red,Green,Blue|custom}} / {{VALUE:Red, Green|Red}}")
	if err != nil {
		t.Fatal(err)
	}
	if len(fp.choices) != 2 {
		t.Fatalf("choices = %d", len(fp.choices))
	}
	first, second := fp.choices[0], fp.choices[1]
	if !first.AllowCustom || first.Default != "" {
		t.Errorf("custom choice = %+v", first)
	}
	if second.AllowCustom || second.Default != "Red" {
		t.Errorf("default choice = %+v", second)
	}
	if strings.Join(second.Options, "|") != "Red|Green" {
		t.Errorf("options = %q", second.Options)
	}
	if got != " / Red" {
		t.Errorf("got %q", got)
	}
}

func TestFormatStopsAtEmptyName(t *testing.T) {
	fp := &fakePrompter{answers: map[string]string{"x": "X"}}
	in := "a {{VALUE:}} b {{VALUE:x}}"
	got, err := NewPass(fp).Format(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if got != in {
		t.Errorf("got %q, want input unchanged", got)
	}
	if len(fp.prompts) != 0 {
		t.Errorf("prompted after unparseable token")
	}
}

func TestFormatCancelled(t *testing.T) {
	fp := &fakePrompter{err: apperr.ErrCancelled}
	got, err := NewPass(fp).Format(context.Background(), "x {{VALUE:a}}")
	if !errors.Is(err, apperr.ErrCancelled) || got != "" {
		t.Errorf("got %q, %v", got, err)
	}
}

func TestFormatDoesNotRescanValues(t *testing.T) {
	fp := &fakePrompter{answers: map[string]string{"a": "{{VALUE:b}}"}}
	got, err := NewPass(fp).Format(context.Background(), "{{VALUE:a}}!")
	if err != nil {
		t.Fatal(err)
	}
	if got != "{{VALUE:b}}!" || len(fp.prompts) != 1 {
		t.Errorf("got %q after %d prompts", got, len(fp.prompts))
	}
}

func TestFormatUnknownKindsVerbatim(t *testing.T) {
	in := "{{FOO:bar}} {{TEMPLATE:x}} {{MACRO:m}} {{VALUE"
	got, err := NewPass(&fakePrompter{}).Format(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if got != in {
		t.Errorf("got %q", got)
	}
}

func TestFormatCaptureValue(t *testing.T) {
	p := NewPass(&fakePrompter{}, WithValue("hello"))
	got, err := p.Format(context.Background(), "- {{VALUE}} ({{name}})")
	if err != nil {
		t.Fatal(err)
	}
	if got != "- hello (hello)" {
		t.Errorf("got %q", got)
	}
}

func TestFormatDates(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{{DATE}}", "2025-03-07"},
		{"{{DATE+1}}", "2025-03-08"},
		{"{{DATE:YYYY/MM/DD+-1}}", "2025/03/06"},
		{"{{DATE:dddd, MMMM Do}}", "Friday, March 7th"},
		{"{{DATE:HH:mm:ss}}", "14:05:09"},
		{"{{DATE:[Week] ww, Q}}", "Week 10, 1"},
		{"{{DATE:h A}}", "2 PM"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NewPass(nil, WithClock(clock)).Format(context.Background(), tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatVDate(t *testing.T) {
	fp := &fakePrompter{answers: map[string]string{"due": "tomorrow"}}
	p := NewPass(fp, WithClock(clock))
	got, err := p.Format(context.Background(), "{{VDATE:due,YYYY-MM-DD}} / {{VDATE:due,D MMM}}")
	if err != nil {
		t.Fatal(err)
	}
	if got != "2025-03-08 / 8 Mar" {
		t.Errorf("got %q", got)
	}
	if v, _ := p.Memo().Get("due"); v.Kind() != vars.KindDate {
		t.Errorf("memo kind = %v", v.Kind())
	}

	fp = &fakePrompter{answers: map[string]string{"due": "someday"}}
	if _, err := NewPass(fp, WithClock(clock)).Format(context.Background(), "{{VDATE:due}}"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("err = %v, want ErrInvalidDate", err)
	}
}

func TestFormatTitleAndLink(t *testing.T) {
	got, err := NewPass(nil, WithTitle("Inbox")).Format(context.Background(), "{{TITLE}} {{LINKCURRENT}}")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Inbox [[Inbox]]" {
		t.Errorf("got %q", got)
	}
}

func TestFormatTemplateInclude(t *testing.T) {
	loader := mapLoader{
		"header": "# {{VALUE:topic}}",
		"loop":   "{{TEMPLATE:loop}}",
	}
	fp := &fakePrompter{answers: map[string]string{"topic": "Go"}}
	p := NewPass(fp, WithTemplates(loader))
	got, err := p.Format(context.Background(), "{{TEMPLATE:header}}\n{{VALUE:topic}}")
	if err != nil {
		t.Fatal(err)
	}
	if got != "# Go\nGo" || len(fp.prompts) != 1 {
		t.Errorf("got %q after %d prompts", got, len(fp.prompts))
	}

	_, err = NewPass(fp, WithTemplates(loader)).Format(context.Background(), "{{TEMPLATE:loop}}")
	if !errors.Is(err, ErrTemplateDepth) {
		t.Errorf("err = %v, want ErrTemplateDepth", err)
	}
	_, err = NewPass(fp, WithTemplates(loader)).Format(context.Background(), "{{TEMPLATE:missing}}")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestFormatCollectsTypedProperties(t *testing.T) {
	macros := macroFunc(func(name string) (any, error) {
		switch name {
		case "tags":
			return []any{"a", "b"}, nil
		case "count":
			return 3, nil
		}
		return nil, errors.New("unknown macro")
	})
	tmpl := "---\ntags: {{MACRO:tags}}\nsummary: n={{MACRO:count}}\ncount: {{MACRO:count}}\n---\nbody {{MACRO:tags}}"
	p := NewPass(nil, WithMacros(macros))
	got, err := p.Format(context.Background(), tmpl)
	if err != nil {
		t.Fatal(err)
	}
	want := "---\ntags: a, b\nsummary: n=3\ncount: 3\n---\nbody a, b"
	if got != want {
		t.Errorf("got %q", got)
	}
	props := p.Properties()
	if len(props) != 2 {
		t.Fatalf("props = %+v", props)
	}
	if props[0].Key != "tags" || !props[0].Value.Equal(vars.Strings("a", "b")) {
		t.Errorf("tags = %+v", props[0])
	}
	if props[1].Key != "count" || !props[1].Value.Equal(vars.Number(3)) {
		t.Errorf("count = %+v", props[1])
	}
	if p.Properties() != nil {
		t.Error("properties must drain once")
	}
}

func TestFormatInfersStructuredStrings(t *testing.T) {
	tmpl := "---\ntags: {{VALUE:t}}\ntitle: {{VALUE:t}}\n---\n"
	fp := &fakePrompter{answers: map[string]string{"t": "x, y"}}
	p := NewPass(fp, WithPropertyTypes(map[string]string{"title": "text"}, true))
	if _, err := p.Format(context.Background(), tmpl); err != nil {
		t.Fatal(err)
	}
	props := p.Properties()
	if len(props) != 1 || props[0].Key != "tags" || !props[0].Value.Equal(vars.Strings("x", "y")) {
		t.Errorf("props = %+v", props)
	}

	p = NewPass(fp)
	if _, err := p.Format(context.Background(), tmpl); err != nil {
		t.Fatal(err)
	}
	if props := p.Properties(); len(props) != 0 {
		t.Errorf("inference disabled, props = %+v", props)
	}
}

func TestFormatEncodedDate(t *testing.T) {
	seed := map[string]vars.Value{"when": vars.String("@date:2025-01-02T00:00:00.000Z")}
	p := NewPass(nil, WithVariables(seed))
	got, err := p.Format(context.Background(), "---\nwhen: {{VALUE:when}}\n---\n")
	if err != nil {
		t.Fatal(err)
	}
	if got != "---\nwhen: 2025-01-02T00:00:00.000Z\n---\n" {
		t.Errorf("got %q", got)
	}
	props := p.Properties()
	if len(props) != 1 || props[0].Value.Kind() != vars.KindDate {
		t.Errorf("props = %+v", props)
	}
}

func TestFormatEscapesQuotedYAML(t *testing.T) {
	fp := &fakePrompter{answers: map[string]string{"t": `say "hi"`}}
	got, err := NewPass(fp).Format(context.Background(), "---\ntitle: \"{{VALUE:t}}\"\n---\n{{VALUE:t}}")
	if err != nil {
		t.Fatal(err)
	}
	want := "---\ntitle: \"say \\\"hi\\\"\"\n---\nsay \"hi\""
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestUnescapeLineBreaks(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`a\nb`, "a\nb"},
		{`a\\nb`, `a\nb`},
		{`a\tb`, `a\tb`},
		{`end\`, `end\`},
		{"plain", "plain"},
		{`\\\n`, "\\\n"},
	}
	for _, tt := range tests {
		if got := UnescapeLineBreaks(tt.in); got != tt.want {
			t.Errorf("UnescapeLineBreaks(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"today", "2025-03-07"},
		{"Yesterday", "2025-03-06"},
		{"+10", "2025-03-17"},
		{"-7", "2025-02-28"},
		{"in 2 days", "2025-03-09"},
		{"2024-12-25", "2024-12-25"},
		{"Jan 5, 2026", "2026-01-05"},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in, fixedNow)
		if err != nil {
			t.Errorf("ParseDate(%q): %v", tt.in, err)
			continue
		}
		if s := got.Format("2006-01-02"); s != tt.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.in, s, tt.want)
		}
	}
	if _, err := ParseDate("", fixedNow); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("empty input err = %v", err)
	}
}
