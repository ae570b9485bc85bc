// Package prompt implements formatter.Prompter for terminals and for
// requests that carry their answers up front.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/starford/scribe/internal/formatter"
)

var (
	ErrMissingValue  = errors.New("prompt: missing value")
	ErrInvalidChoice = errors.New("prompt: value is not one of the options")
)

// Static answers from a fixed set of values, keyed by variable name.
// Suggester answers are looked up by the suggester's key, which is the
// option list as written in the template (e.g. "Red,Green,Blue").
type Static map[string]string

var _ formatter.Prompter = Static(nil)

// Prompt returns the value for req.Name, or its default.
func (s Static) Prompt(_ context.Context, req formatter.PromptRequest) (string, error) {
	if v, ok := s[req.Name]; ok {
		return v, nil
	}
	if req.Default != "" {
		return req.Default, nil
	}
	return "", fmt.Errorf("%w: %s", ErrMissingValue, req.Name)
}

// Choose returns the value for req.Key. Unless custom input is allowed the
// value must be one of the options.
func (s Static) Choose(_ context.Context, req formatter.ChoiceRequest) (string, error) {
	v, ok := s[req.Key]
	if !ok {
		if req.Default != "" {
			return req.Default, nil
		}
		return "", fmt.Errorf("%w: %s", ErrMissingValue, req.Key)
	}
	if !req.AllowCustom && !slices.Contains(req.Options, v) {
		return "", fmt.Errorf("%w: %q for %s", ErrInvalidChoice, v, req.Key)
	}
	return v, nil
}
