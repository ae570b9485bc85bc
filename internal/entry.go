// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/scribe/internal/api"
	"github.com/starford/scribe/internal/captureservice"
	"github.com/starford/scribe/internal/mcpserver"
	"github.com/starford/scribe/internal/sse"
	"github.com/starford/scribe/internal/templates"
)

func (a *application) setup() (*Config, *slog.Logger, error) {
	if a.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: a.config.App.LogLevel,
		}))
	}
	return a.config, a.logger, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	cfg, logger, err := app.setup()
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("templates_dir", cfg.Vault.TemplatesDir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	stack, err := Open(cfg, logger, captureservice.WithPublisher(broker))
	if err != nil {
		return err
	}
	defer stack.Close()

	templatesRoot, err := stack.TemplatesRoot()
	if err != nil {
		return fmt.Errorf("resolve templates dir: %w", err)
	}

	h := api.NewHandler(stack.Service, stack.Journal, stack.Templates)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the templates folder and announce changes over SSE.
	g.Go(func() error {
		err := templates.Watch(gCtx, stack.Templates, templatesRoot, logger, func(kind, name string) {
			broker.PublishTemplateChange(kind, name)
		})
		if err != nil {
			logger.Warn("template watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group once the server has been shut down, so that
// the template watcher stops too.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.logger == nil && app.config != nil {
		app.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
	}
	cfg, logger, err := app.setup()
	if err != nil {
		return err
	}

	stack, err := Open(cfg, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	srv := mcpserver.New(stack.Service, stack.Journal, stack.Templates)
	logger.Info("MCP server starting on stdio", slog.String("vault_path", cfg.Vault.Path))
	return srv.ServeStdio()
}
