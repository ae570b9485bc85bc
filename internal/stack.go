package internal

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/starford/scribe/internal/captureservice"
	"github.com/starford/scribe/internal/journal"
	"github.com/starford/scribe/internal/postprocess"
	"github.com/starford/scribe/internal/storage"
	"github.com/starford/scribe/internal/templates"
)

// Stack is the service graph shared by the HTTP server, the MCP server and
// the one-shot CLI commands.
type Stack struct {
	Files     *storage.FS
	Journal   *journal.DB
	Templates *templates.Registry
	Service   *captureservice.Service
}

// Open builds the stack for cfg. extra options are applied to the capture
// service after the configured ones.
func Open(cfg *Config, logger *slog.Logger, extra ...captureservice.Option) (*Stack, error) {
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := journal.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}
	if days := cfg.SQLite.RetentionDays; days > 0 {
		n, err := db.Prune(time.Now().AddDate(0, 0, -days))
		if err != nil {
			logger.Warn("journal prune failed", slog.String("error", err.Error()))
		} else if n > 0 {
			logger.Info("journal pruned", slog.Int64("entries", n), slog.Int("retention_days", days))
		}
	}

	reg := templates.NewRegistry(store, cfg.Vault.TemplatesDir)
	if err := reg.Reload(); err != nil {
		logger.Warn("template scan failed", slog.String("error", err.Error()))
	}

	post, err := postprocess.New(cfg.Postprocess.Command, cfg.Postprocess.Timeout)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init post-processor: %w", err)
	}

	opts := []captureservice.Option{
		captureservice.WithTemplates(reg),
		captureservice.WithJournal(db),
		captureservice.WithPostProcessor(post),
		captureservice.WithOptions(cfg.CaptureOptions()),
		captureservice.WithLogger(logger),
	}
	if len(cfg.Macros.Commands) > 0 {
		macros, err := postprocess.NewMacros(cfg.Macros.Commands, cfg.Macros.Timeout)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("init macros: %w", err)
		}
		opts = append(opts, captureservice.WithMacros(macros))
	}
	svc := captureservice.New(store, append(opts, extra...)...)

	return &Stack{Files: store, Journal: db, Templates: reg, Service: svc}, nil
}

// TemplatesRoot returns the absolute path of the templates folder.
func (s *Stack) TemplatesRoot() (string, error) {
	return s.Files.Abs(s.Templates.Dir())
}

// Close releases the journal.
func (s *Stack) Close() error {
	return s.Journal.Close()
}
