package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/scribe/internal"
	"github.com/starford/scribe/internal/apperr"
	pkgconfig "github.com/starford/scribe/pkg/config"
)

// loadConfig reads the config file. The default file may be absent, in
// which case the built-in defaults apply; an explicit --config must exist.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")
	var err error
	if cmd.IsSet("config") {
		err = pkgconfig.Load(path, cfg)
	} else {
		_, err = pkgconfig.LoadOptional(path, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:   "scribe",
		Usage:  "Template formatting and quick capture into a Markdown vault",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools on stdin/stdout",
				Action: serveMCP,
			},
			formatCommand(),
			captureCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, apperr.ErrCancelled) {
			fmt.Fprintln(os.Stderr, "cancelled")
			os.Exit(130)
		}
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
