// Package postprocess runs external programs for captures: an optional
// rewrite over captured files, such as a formatter, and named macro
// commands whose output feeds {{MACRO:name}} placeholders.
package postprocess

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Transformer rewrites the full text of the file at path.
type Transformer interface {
	Transform(ctx context.Context, path, text string) (string, error)
}

// Nop returns the text unchanged.
type Nop struct{}

func (Nop) Transform(_ context.Context, _, text string) (string, error) { return text, nil }

// ErrEmptyCommand is returned by NewCommand for a blank command line.
var ErrEmptyCommand = errors.New("postprocess: empty command")

// Command pipes the text through an external program: the text goes to
// stdin and stdout becomes the new text. The vault-relative path is passed
// in the SCRIBE_PATH environment variable.
type Command struct {
	name    string
	args    []string
	timeout time.Duration
}

// NewCommand parses a whitespace separated command line.
func NewCommand(line string, timeout time.Duration) (*Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrEmptyCommand
	}
	return &Command{name: fields[0], args: fields[1:], timeout: timeout}, nil
}

// New returns Nop for an empty command line and a Command otherwise.
func New(line string, timeout time.Duration) (Transformer, error) {
	if strings.TrimSpace(line) == "" {
		return Nop{}, nil
	}
	return NewCommand(line, timeout)
}

// Transform runs the command.
func (c *Command) Transform(ctx context.Context, path, text string) (string, error) {
	return c.run(ctx, text, "SCRIBE_PATH="+path)
}

func (c *Command) run(ctx context.Context, stdin string, env ...string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, c.name, c.args...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("postprocess: %s: %s: %w", c.name, msg, err)
	}
	return stdout.String(), nil
}
