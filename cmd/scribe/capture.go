package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/starford/scribe/internal"
	"github.com/starford/scribe/internal/captureservice"
	"github.com/starford/scribe/internal/prompt"
)

var (
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "8", Dark: "7"})
	okStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
)

func templateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "template", Aliases: []string{"t"}, Usage: "Template name in the templates folder"},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Inline format, used without --template"},
		&cli.StringFlag{Name: "value", Usage: "Answer for {{VALUE}}"},
		&cli.StringSliceFlag{Name: "var", Usage: "Preset variable as name=value (repeatable)"},
	}
}

// cliLogger keeps one-shot commands quiet unless something goes wrong.
func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func parseVars(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --var %q, want name=value", p)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

func optionalValue(cmd *cli.Command) *string {
	if !cmd.IsSet("value") {
		return nil
	}
	v := cmd.String("value")
	return &v
}

func openStack(cmd *cli.Command) (*internal.Stack, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return internal.Open(cfg, cliLogger())
}

func formatCommand() *cli.Command {
	return &cli.Command{
		Name:  "format",
		Usage: "Expand a template and print the result",
		Flags: append(templateFlags(),
			&cli.StringFlag{Name: "title", Usage: "Title for {{TITLE}} and {{LINKCURRENT}}"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			variables, err := parseVars(cmd.StringSlice("var"))
			if err != nil {
				return err
			}
			stack, err := openStack(cmd)
			if err != nil {
				return err
			}
			defer stack.Close()

			res, err := stack.Service.Format(ctx, captureservice.FormatRequest{
				Template:  cmd.String("template"),
				Format:    cmd.String("format"),
				Value:     optionalValue(cmd),
				Variables: variables,
				Title:     cmd.String("title"),
			}, prompt.NewTerminal(os.Stdin, os.Stderr))
			if err != nil {
				return err
			}
			fmt.Fprint(os.Stdout, res.Text)
			return nil
		},
	}
}

func captureCommand() *cli.Command {
	return &cli.Command{
		Name:      "capture",
		Usage:     "Format a template and insert it into a vault file",
		ArgsUsage: "[value]",
		Flags: append(templateFlags(),
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Target file; may contain placeholders"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "append, prepend or insert_after"},
			&cli.StringFlag{Name: "insert-after", Aliases: []string{"a"}, Usage: "Line to insert below"},
			&cli.BoolFlag{Name: "create-heading", Usage: "Create the insert-after line when missing"},
			&cli.BoolFlag{Name: "must-exist", Usage: "Fail instead of creating a missing file"},
			&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "Show the change without writing"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			variables, err := parseVars(cmd.StringSlice("var"))
			if err != nil {
				return err
			}
			stack, err := openStack(cmd)
			if err != nil {
				return err
			}
			defer stack.Close()

			req := captureservice.Request{
				Path:        cmd.String("path"),
				Template:    cmd.String("template"),
				Format:      cmd.String("format"),
				Value:       optionalValue(cmd),
				Variables:   variables,
				Mode:        cmd.String("mode"),
				InsertAfter: cmd.String("insert-after"),
				MustExist:   cmd.Bool("must-exist"),
				DryRun:      cmd.Bool("dry-run"),
			}
			if req.Value == nil && cmd.Args().Len() > 0 {
				v := strings.Join(cmd.Args().Slice(), " ")
				req.Value = &v
			}
			if cmd.IsSet("create-heading") {
				create := cmd.Bool("create-heading")
				req.CreateIfNotFound = &create
			}

			res, err := stack.Service.Capture(ctx, req, prompt.NewTerminal(os.Stdin, os.Stderr))
			if err != nil {
				return err
			}
			printResult(os.Stdout, res)
			return nil
		},
	}
}

func printResult(w io.Writer, res *captureservice.Result) {
	if res.DryRun {
		for _, l := range res.Diff {
			switch l.Type {
			case captureservice.LineAdded:
				fmt.Fprintln(w, addedStyle.Render("+ "+l.Text))
			case captureservice.LineRemoved:
				fmt.Fprintln(w, removedStyle.Render("- "+l.Text))
			default:
				fmt.Fprintln(w, dimStyle.Render("  "+l.Text))
			}
		}
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("dry run: %s line %d", res.Path, res.Cursor.Line+1)))
		return
	}
	verb := "captured into"
	if res.Created {
		verb = "created"
	}
	fmt.Fprintf(w, "%s %s %s\n", okStyle.Render("✓"), verb,
		lipgloss.NewStyle().Bold(true).Render(res.Path))
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("line %d, column %d", res.Cursor.Line+1, res.Cursor.Ch+1)))
	if !res.Exact {
		fmt.Fprintln(w, dimStyle.Render("position is approximate: the post-processor rewrote the file"))
	}
}
