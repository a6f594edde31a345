// Command clipd is the capture-to-insertion daemon. It drives a capture
// browser over the pages the user reads, formats highlights and screen
// captures, and inserts them into the selected remote document.
//
// Usage:
//
//	clipd -config clipd.yaml          # HTTP API on the configured listen addr
//	clipd -config clipd.yaml -mcp     # serve the tools over MCP stdio instead
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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/Ahmad-mukhtar07/EZ-NoteTaker/clip"
)

func main() {
	configPath := flag.String("config", "clipd.yaml", "path to clipd.yaml config file")
	mcpMode := flag.Bool("mcp", false, "serve the clipper tools over MCP stdio instead of HTTP")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *mcpMode); err != nil {
		logger.Error("clipd: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath string, mcpMode bool) error {
	cfg, err := clip.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// User-facing messages go to stderr as structured events; a desktop
	// shell wrapping this daemon would surface them as notifications.
	notify := func(msg string) {
		logger.Warn("clipd: user notification", "message", msg)
	}

	svc, err := clip.NewService(cfg, logger, notify)
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}
	defer svc.Close()

	if err := svc.Start(ctx); err != nil {
		return err
	}

	if mcpMode {
		return runMCP(ctx, logger, svc)
	}
	return runHTTP(ctx, logger, cfg.Listen, svc)
}

func runMCP(ctx context.Context, logger *slog.Logger, svc *clip.Service) error {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "clipd",
		Version: "1.0.0",
	}, nil)
	svc.RegisterMCP(srv)

	logger.Info("clipd: MCP stdio serving")
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func runHTTP(ctx context.Context, logger *slog.Logger, addr string, svc *clip.Service) error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	svc.RegisterHTTP(r)

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("clipd: HTTP listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
