package postprocess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/scribe/internal/formatter"
)

// ErrUnknownMacro is returned by Macros.Run for a name with no command.
var ErrUnknownMacro = errors.New("postprocess: unknown macro")

// Macros runs named macro commands. Each command gets empty stdin and its
// name in SCRIBE_MACRO. Output that parses as JSON is returned decoded, so
// a macro can yield a list, a number, a bool or null; anything else is
// returned as trimmed text.
type Macros struct {
	commands map[string]*Command
}

var _ formatter.MacroRunner = (*Macros)(nil)

// NewMacros parses one command line per macro name.
func NewMacros(lines map[string]string, timeout time.Duration) (*Macros, error) {
	m := &Macros{commands: make(map[string]*Command, len(lines))}
	for name, line := range lines {
		c, err := NewCommand(line, timeout)
		if err != nil {
			return nil, fmt.Errorf("postprocess: macro %q: %w", name, err)
		}
		m.commands[name] = c
	}
	return m, nil
}

// Run executes the macro called name.
func (m *Macros) Run(ctx context.Context, name string) (any, error) {
	c, ok := m.commands[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMacro, name)
	}
	out, err := c.run(ctx, "", "SCRIBE_MACRO="+name)
	if err != nil {
		return nil, err
	}
	return decodeOutput(out), nil
}

func decodeOutput(out string) any {
	trimmed := strings.TrimSpace(out)
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
		if _, isMap := v.(map[string]any); !isMap {
			return v
		}
	}
	return trimmed
}
