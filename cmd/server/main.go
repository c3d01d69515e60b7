/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Grid Tycoon simulation server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags (environment overrides)
  2. Initialize SQLite store
  3. Load the catalog (built-in or from file)
  4. Create the game and resume the last save, if any
  5. Attach autosave, settlement ledger, metrics and websocket hub
  6. Start the pulse scheduler and the stats broadcaster
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port     HTTP server port (default: 8080)
  -db       SQLite database path (default: gridtycoon.db)
            Use ":memory:" for in-memory database
  -catalog  Catalog file (.json, .yaml); empty uses the built-in catalog
  -save     Save slot to resume on start (default: "New Game")
  -origins  Comma-separated CORS origins
  -rate     Requests per second per client on /api (0 disables)
  -debug    Debug logging

ENVIRONMENT:
  GRIDTYCOON_PORT, GRIDTYCOON_DB, GRIDTYCOON_CATALOG override the flags.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler and broadcaster
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Write the session to its save slot
  5. Close database connection

EXAMPLES:
  # Run with file database
  ./server -db="./data/grid.db"

  # Run with a custom world
  ./server -catalog=./worlds/hard.yaml

SEE ALSO:
  - api/server.go: Router configuration
  - game/scheduler.go: Pulse loop
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/warp/gridtycoon/api"
	"github.com/warp/gridtycoon/factory"
	"github.com/warp/gridtycoon/game"
	"github.com/warp/gridtycoon/metrics"
	"github.com/warp/gridtycoon/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", envInt("GRIDTYCOON_PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envString("GRIDTYCOON_DB", "gridtycoon.db"), "SQLite database path")
	catalogPath := flag.String("catalog", envString("GRIDTYCOON_CATALOG", ""), "Catalog file (.json, .yaml)")
	saveName := flag.String("save", game.InitialSaveName, "Save slot to resume")
	origins := flag.String("origins", "", "Comma-separated CORS origins")
	rps := flag.Float64("rate", 10, "Requests per second per client on /api (0 disables)")
	debug := flag.Bool("debug", false, "Debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(logger, config{
		port:        *port,
		dbPath:      *dbPath,
		catalogPath: *catalogPath,
		saveName:    *saveName,
		origins:     splitList(*origins),
		rps:         *rps,
	}); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

type config struct {
	port        int
	dbPath      string
	catalogPath string
	saveName    string
	origins     []string
	rps         float64
}

func run(logger *slog.Logger, cfg config) error {
	// Initialize store
	store, err := sqlite.New(cfg.dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	// Catalog
	opts := []game.Option{game.WithLogger(logger)}
	if cfg.catalogPath != "" {
		cat, err := factory.NewCatalogFactory().LoadFile(cfg.catalogPath)
		if err != nil {
			return err
		}
		opts = append(opts, game.WithCatalog(cat))
		logger.Info("catalog loaded", "path", cfg.catalogPath, "producers", len(cat.Producers))
	}
	g := game.New(opts...)

	// Resume the last session
	ctx := context.Background()
	if save, err := store.Get(ctx, cfg.saveName); err == nil {
		if err := g.LoadGame(save); err != nil {
			logger.Warn("failed to load save, starting fresh", "save", cfg.saveName, "error", err)
		} else {
			logger.Info("save loaded", "save", cfg.saveName, "balance", g.Balance())
		}
	} else if !errors.Is(err, game.ErrSaveNotFound) {
		logger.Warn("failed to read save, starting fresh", "save", cfg.saveName, "error", err)
	}

	// Listeners
	game.NewAutosaver(g, store).Attach()
	recorder := game.NewLedgerRecorder(g, store)
	recorder.Attach()

	collector := metrics.New()
	g.Subscribe(collector.Observe)

	hub := api.NewHub()
	hub.Metrics = collector
	hub.Hello = func() api.Message { return api.Message{Type: "state", Payload: g.Snapshot()} }
	g.Subscribe(hub.Observe)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go hub.Run(hubCtx)

	// Background loops
	scheduler := game.NewScheduler(g)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	broadcaster := api.NewStatsBroadcaster(g, hub)
	broadcaster.Start()

	// Create router
	handler := api.NewHandler(g, store, store)
	handler.Recorder = recorder
	routerCfg := api.RouterConfig{
		AllowedOrigins: cfg.origins,
		Hub:            hub,
		Metrics:        collector,
	}
	if cfg.rps > 0 {
		routerCfg.Limiter = api.NewRateLimiter(rate.Limit(cfg.rps), int(2*cfg.rps)+1)
	}
	router := api.NewRouter(handler, routerCfg)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", fmt.Sprintf("http://localhost:%d", cfg.port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		scheduler.Stop()
		broadcaster.Stop()
		return err
	}

	logger.Info("shutting down server")
	scheduler.Stop()
	broadcaster.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := handler.SaveNow(shutdownCtx); err != nil {
		logger.Error("final save failed", "error", err)
	}

	logger.Info("server stopped", "date", g.Date(), "balance", g.Balance())
	return nil
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
