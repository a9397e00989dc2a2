// Repodigest summarizes public GitHub repositories.
//
// The default command serves the HTTP API. The mcp command serves the same
// analyses as MCP tools over stdio.
//
// Configuration is read from ~/.config/repodigest/config.yaml (or -config)
// and the environment. A .env file in the working directory is loaded first
// and never overrides variables that are already set.
//
// Usage:
//
//	# Start the HTTP server on :8000
//	repodigest
//
//	# Serve MCP tools over stdio
//	repodigest mcp
//
//	# Configure via environment
//	SERVER_PORT=9000 GITHUB_TOKEN=ghp_... LLM_API_KEY=... repodigest serve
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repodigest/internal/config"
	"github.com/fyrsmithlabs/repodigest/internal/digest"
	httpapi "github.com/fyrsmithlabs/repodigest/internal/http"
	"github.com/fyrsmithlabs/repodigest/internal/logging"
	"github.com/fyrsmithlabs/repodigest/internal/mcp"
	"github.com/fyrsmithlabs/repodigest/internal/services"
	"github.com/fyrsmithlabs/repodigest/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

const (
	cmdServe   = "serve"
	cmdMCP     = "mcp"
	cmdVersion = "version"
)

func main() {
	configPath := flag.String("config", "", "path to the config file (default ~/.config/repodigest/config.yaml)")
	flag.Usage = usage
	flag.Parse()

	command := cmdServe
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	switch command {
	case cmdVersion:
		printVersion(os.Stdout)
		return
	case cmdServe, cmdMCP:
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, command, *configPath)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "repodigest: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  repodigest [-config PATH] [serve]   Start the HTTP server\n")
	fmt.Fprintf(os.Stderr, "  repodigest [-config PATH] mcp       Serve MCP tools over stdio\n")
	fmt.Fprintf(os.Stderr, "  repodigest version                  Show version information\n")
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "repodigest by Fyrsmith Labs\n")
	fmt.Fprintf(w, "Version:    %s\n", version)
	fmt.Fprintf(w, "Commit:     %s\n", gitCommit)
	fmt.Fprintf(w, "Build Date: %s\n", buildDate)
}

// run wires every dependency and blocks until ctx is canceled:
//  1. Loads .env and configuration
//  2. Initializes logger and telemetry
//  3. Builds the GitHub client, scrubber, digest builder and summarizer
//  4. Serves HTTP or MCP until shutdown
func run(ctx context.Context, command, configPath string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// stdout carries the MCP protocol.
	stream := logging.StreamStdout
	if command == cmdMCP {
		stream = logging.StreamStderr
	}
	logger, err := newLogger(cfg.Logging, stream)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zl := logger.Underlying()

	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry, version), zl.Named("telemetry"))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			zl.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	reg, err := services.New(ctx, cfg, services.Options{
		Meter:  tel.Meter(digest.InstrumentationName),
		Logger: zl,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	zl.Info("starting repodigest",
		zap.String("command", command),
		zap.String("version", version),
		zap.Bool("github_token", cfg.GitHub.Token.IsSet()),
		zap.Bool("summaries_enabled", reg.Summarizer() != nil),
		zap.Bool("secret_scrubbing", reg.Scrubber().Enabled()))

	if command == cmdMCP {
		return runMCP(ctx, reg, zl)
	}
	return runServer(ctx, cfg, reg, zl)
}

// newLogger builds the process logger from settings.
func newLogger(s config.LoggingConfig, stream string) (*logging.Logger, error) {
	cfg := logging.NewDefaultConfig()
	level, err := logging.ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}
	cfg.Level = level
	if s.Format != "" {
		cfg.Format = s.Format
	}
	cfg.Output.Stream = stream
	cfg.Output.OTEL = s.OTEL

	var provider log.LoggerProvider
	if s.OTEL {
		provider = global.GetLoggerProvider()
	}
	return logging.NewLogger(cfg, provider)
}

// runServer serves the HTTP API until ctx is canceled, then drains in-flight
// requests within the configured shutdown timeout.
func runServer(ctx context.Context, cfg *config.Config, reg services.Registry, logger *zap.Logger) error {
	srv, err := httpapi.NewServer(reg.Analyzer(), logger.Named("http"), &httpapi.Config{
		Port:      cfg.Server.Port,
		BodyLimit: cfg.Server.BodyLimit,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	logger.Info("server shutdown complete")
	return nil
}

// runMCP serves MCP tools over stdio until ctx is canceled or the client
// disconnects.
func runMCP(ctx context.Context, reg services.Registry, logger *zap.Logger) error {
	srv, err := mcp.NewServer(&mcp.Config{
		Name:    "repodigest",
		Version: version,
		Logger:  logger.Named("mcp"),
	}, reg.Analyzer())
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("MCP server shutdown complete")
	return nil
}
