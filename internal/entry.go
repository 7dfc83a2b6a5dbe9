// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/laguz/internal/api"
	"github.com/starford/laguz/internal/backlink"
	"github.com/starford/laguz/internal/noteindex"
	"github.com/starford/laguz/internal/noteservice"
	"github.com/starford/laguz/internal/notify"
	"github.com/starford/laguz/internal/rename"
	"github.com/starford/laguz/internal/resolve"
	"github.com/starford/laguz/internal/search"
	"github.com/starford/laguz/internal/vault"
)

// NewLogger creates the structured JSON logger and installs it as default.
// CLI and MCP modes log to stderr so stdout stays clean for command output.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// NewService wires the core components from configuration. The returned
// close function releases the search database when one is open.
func NewService(cfg *Config, logger *slog.Logger) (*noteservice.Service, func() error, error) {
	fs, err := vault.New(cfg.Notes.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init notes root: %w", err)
	}

	var scanner noteindex.DirectoryScanner
	switch cfg.Scan.Tool {
	case ScanToolRg, ScanToolFd:
		scanner = &noteindex.ToolScanner{Command: cfg.Scan.Tool}
	}

	ix := noteindex.New(fs, noteindex.Options{
		Extensions: cfg.Notes.Extensions,
		Junk:       cfg.Notes.Junk,
		Types:      cfg.Notes.NoteTypes(),
		TTL:        cfg.Notes.CacheTTL(),
		Scanner:    scanner,
		Logger:     logger,
	})

	resolver := resolve.New(fs.Root(), cfg.Notes.Extensions, cfg.Notes.NoteTypes())

	var searcher backlink.ContentSearcher
	if cfg.Scan.UseRgForBacklinks {
		searcher = backlink.RipgrepSearcher{}
	}
	engine := backlink.New(fs.Root(), resolver, searcher, logger)

	renamer := rename.New(fs, ix, engine, cfg.Notes.Extensions, notify.Slog{Logger: logger})

	var db *search.DB
	closeFn := func() error { return nil }
	if cfg.Search.Enabled {
		db, err = search.Open(cfg.Search.SQLite)
		if err != nil {
			return nil, nil, fmt.Errorf("init search db: %w", err)
		}
		closeFn = db.Close
	}

	return noteservice.New(fs, ix, resolver, engine, renamer, db, logger), closeFn, nil
}

// Run starts the HTTP serve mode with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	watch := cfg.Serve.Watch
	if app.watch != nil {
		watch = *app.watch
	}

	logger := NewLogger(cfg, os.Stdout)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.Serve.Address()),
		slog.String("notes_path", cfg.Notes.Path),
		slog.Bool("search_enabled", cfg.Search.Enabled),
		slog.Bool("watch", watch),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Notes.Path, 0o755); err != nil {
		return fmt.Errorf("create notes dir: %w", err)
	}

	svc, closeFn, err := NewService(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	// Warm the index before accepting requests.
	svc.Index().GetOrBuild()

	apiRouter := api.NewRouter(svc, cfg.Serve.Auth.AuthEnabled(), cfg.Serve.Auth.Token)

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

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.Serve.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// The watcher only invalidates the index; rebuilds happen lazily on
	// the next request.
	if watch {
		g.Go(func() error {
			if err := noteindex.Watch(gCtx, svc.Index(), cfg.Notes.Path, logger); err != nil {
				logger.Warn("file watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.Serve.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

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

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
