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

	"github.com/starford/herald/internal/api"
	"github.com/starford/herald/internal/assignment"
	"github.com/starford/herald/internal/device"
	"github.com/starford/herald/internal/groups"
	"github.com/starford/herald/internal/localstore"
	"github.com/starford/herald/internal/mcpserver"
	"github.com/starford/herald/internal/people"
	"github.com/starford/herald/internal/records"
	"github.com/starford/herald/internal/sse"
	"github.com/starford/herald/internal/storage"
	"github.com/starford/herald/internal/watch"
)

var errConfigRequired = errors.New("config is required")

// Run starts the HTTP server, the SSE broker and the vault watcher.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(os.Stdout, cfg.App.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, closeFn, err := buildService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Vault watcher: drop caches per change, rediscover once things settle.
	if cfg.Vault.Watch {
		g.Go(func() error {
			handlers := watch.Handlers{
				Changed: func(kind, path string) {
					svc.RecordChanged(path)
					broker.PublishRecordEvent(kind, path)
				},
				Settled: func(ctx context.Context) {
					gs, err := svc.Refresh(ctx)
					if err != nil {
						logger.Warn("rediscovery failed", slog.String("error", err.Error()))
						return
					}
					broker.PublishGroupsUpdated(map[string]int{"count": len(gs)})
				},
			}
			if err := watch.Watch(gCtx, cfg.Vault.Path, logger, handlers, cfg.Vault.Settle); err != nil {
				logger.Error("watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

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

// errShutdown cancels the group context so the watcher stops with the
// HTTP server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdio. Logs go to stderr because stdout
// carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stderr, cfg.App.LogLevel)
	slog.SetDefault(logger)

	svc, closeFn, err := buildService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	logger.Info("MCP server starting", slog.String("vault_path", cfg.Vault.Path))
	if err := mcpserver.New(svc, app.version).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// buildService wires storage, the record source, the registries and the
// device store, then runs the first discovery pass.
func buildService(ctx context.Context, cfg *Config, logger *slog.Logger) (*assignment.Service, func(), error) {
	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := localstore.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init local store: %w", err)
	}

	vault := records.NewVault(store, logger)
	reg := groups.New(vault,
		groups.WithFilter(records.Filter{Folder: cfg.Vault.GroupsFolder, Tag: cfg.Vault.GroupTag}),
		groups.WithLogger(logger))
	dev := device.NewStore(db, cfg.Team.TeamDefaults,
		device.WithLogger(logger),
		device.WithIdentity(cfg.Device.Identity))

	svc := assignment.NewService(vault, reg, people.NewResolver(vault, logger), dev,
		assignment.WithGlobalLeadTimes(cfg.Team.GlobalLeadTimes),
		assignment.WithLogger(logger))

	if _, err := svc.Refresh(ctx); err != nil {
		logger.Warn("initial discovery failed", slog.String("error", err.Error()))
	}

	identity, registered := dev.LocalIdentity()
	logger.Info("Device ready",
		slog.String("device_id", dev.DeviceID()),
		slog.String("identity", identity),
		slog.Bool("registered", registered),
		slog.Int("groups", len(svc.Groups())))

	return svc, func() { _ = db.Close() }, nil
}
