package prompt

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/formatter"
)

var colors = []string{"Red", "Green", "Blue"}

func terminal(input string) (*Terminal, *bytes.Buffer) {
	var out bytes.Buffer
	return NewTerminal(strings.NewReader(input), &out), &out
}

func TestTerminalPrompt(t *testing.T) {
	term, out := terminal("Ada Lovelace\r\n")
	got, err := term.Prompt(context.Background(), formatter.PromptRequest{Name: "who", Hint: "person", Default: "me"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "Ada Lovelace" {
		t.Errorf("got %q", got)
	}
	for _, want := range []string{"who", "person", "me"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("prompt %q missing %q", out.String(), want)
		}
	}
}

func TestTerminalEOFCancels(t *testing.T) {
	term, _ := terminal("")
	if _, err := term.Prompt(context.Background(), formatter.PromptRequest{Name: "x"}); !errors.Is(err, apperr.ErrCancelled) {
		t.Errorf("Prompt err = %v", err)
	}
	term, _ = terminal("")
	if _, err := term.Choose(context.Background(), formatter.ChoiceRequest{Options: colors}); !errors.Is(err, apperr.ErrCancelled) {
		t.Errorf("Choose err = %v", err)
	}
	term, _ = terminal("\n")
	if _, err := term.Choose(context.Background(), formatter.ChoiceRequest{Options: colors}); !errors.Is(err, apperr.ErrCancelled) {
		t.Errorf("Choose after empty answer err = %v", err)
	}
}

func TestTerminalChoose(t *testing.T) {
	tests := []struct {
		name  string
		input string
		req   formatter.ChoiceRequest
		want  string
	}{
		{"by number", "2\n", formatter.ChoiceRequest{Options: colors}, "Green"},
		{"by name", "blue\n", formatter.ChoiceRequest{Options: colors}, "Blue"},
		{"fuzzy unique", "Gre\n", formatter.ChoiceRequest{Options: colors}, "Green"},
		{"retry after miss", "zzz\n1\n", formatter.ChoiceRequest{Options: colors}, "Red"},
		{"custom text", "Purple\n", formatter.ChoiceRequest{Options: colors, AllowCustom: true}, "Purple"},
		{"empty keeps default", "\n", formatter.ChoiceRequest{Options: colors, Default: "Red"}, ""},
		{"empty asks again", "\n2\n", formatter.ChoiceRequest{Options: colors}, "Green"},
		{"empty asks again with custom", "\n\nPurple\n", formatter.ChoiceRequest{Options: colors, AllowCustom: true}, "Purple"},
		{"narrow twice", "apl\ntart\n", formatter.ChoiceRequest{Options: []string{"apple pie", "apple tart", "banana"}}, "apple tart"},
		{"out of range number", "9\n3\n", formatter.ChoiceRequest{Options: colors}, "Blue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, _ := terminal(tt.input)
			got, err := term.Choose(context.Background(), tt.req)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNarrow(t *testing.T) {
	got := Narrow("mtg", []string{"meeting notes", "daily", "mortgage"})
	if len(got) != 2 {
		t.Fatalf("got %q", got)
	}
	if Narrow("xyz", colors) == nil || len(Narrow("xyz", colors)) != 0 {
		t.Error("no match should give an empty list")
	}
}

func TestStatic(t *testing.T) {
	s := Static{"who": "Ada", "Red,Green": "Green", "a,b": "c"}
	ctx := context.Background()

	if got, err := s.Prompt(ctx, formatter.PromptRequest{Name: "who"}); err != nil || got != "Ada" {
		t.Errorf("Prompt = %q, %v", got, err)
	}
	if got, err := s.Prompt(ctx, formatter.PromptRequest{Name: "x", Default: "d"}); err != nil || got != "d" {
		t.Errorf("Prompt default = %q, %v", got, err)
	}
	if _, err := s.Prompt(ctx, formatter.PromptRequest{Name: "x"}); !errors.Is(err, ErrMissingValue) {
		t.Errorf("missing err = %v", err)
	}

	req := formatter.ChoiceRequest{Key: "Red,Green", Options: []string{"Red", "Green"}}
	if got, err := s.Choose(ctx, req); err != nil || got != "Green" {
		t.Errorf("Choose = %q, %v", got, err)
	}
	bad := formatter.ChoiceRequest{Key: "a,b", Options: []string{"a", "b"}}
	if _, err := s.Choose(ctx, bad); !errors.Is(err, ErrInvalidChoice) {
		t.Errorf("invalid choice err = %v", err)
	}
	bad.AllowCustom = true
	if got, err := s.Choose(ctx, bad); err != nil || got != "c" {
		t.Errorf("custom choice = %q, %v", got, err)
	}
}
