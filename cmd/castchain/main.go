// Command castchain serves the actor-chain game API.
//
// It loads configuration (YAML file, .env, environment, flags), builds the
// engine on top of the TMDb client, and serves the REST API, the MCP endpoint
// and the landing page until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sanonone/castchain/internal/config"
	"github.com/sanonone/castchain/internal/mcp"
	"github.com/sanonone/castchain/internal/server"
	"github.com/sanonone/castchain/internal/telemetry"
	"github.com/sanonone/castchain/pkg/engine"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file (optional)")
	envFile := flag.String("env-file", ".env", "Path to a .env file loaded before reading the environment")
	httpAddr := flag.String("http-addr", "", "HTTP listen address, overrides the configuration (e.g. :8080)")
	mcpStdio := flag.Bool("mcp-stdio", false, "Serve the MCP tools over stdin/stdout instead of HTTP")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *envFile, *httpAddr, *mcpStdio); err != nil {
		log.Fatalf("castchain: %v", err)
	}
}

func run(ctx context.Context, configPath, envFile, httpAddr string, mcpStdio bool) error {
	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return err
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg, mcpStdio)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.Setup(ctx, "castchain", version, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	opts := engine.DefaultOptions()
	opts.Pool = cfg.Pool
	opts.Window = cfg.Oracle.RecentWindow
	opts.InitialAttempts = cfg.Selector.InitialAttempts
	opts.ReplayAttempts = cfg.Selector.ReplayAttempts
	opts.Logger = logger

	eng, err := engine.Open(cfg.TMDb, opts)
	if err != nil {
		return err
	}
	mcpServer := mcp.NewMCPServer(eng, version)

	if mcpStdio {
		logger.Info("serving MCP over stdio")
		if err := mcpServer.Run(ctx, &mcpsdk.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("mcp stdio: %w", err)
		}
		return nil
	}

	// Warm the pool so the first player does not pay for the build.
	// Failure is not fatal: the next request retries.
	go func() {
		if actors, err := eng.Pool(ctx); err != nil {
			logger.Warn("initial pool build failed", "error", err)
		} else {
			logger.Info("actor pool ready", "size", len(actors))
		}
	}()

	srv := server.NewServer(eng, server.Options{Addr: cfg.HTTPAddr, Logger: logger, MCP: mcpServer})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	srv.Shutdown()
	return nil
}

// newLogger builds the process logger. In stdio mode stdout carries the MCP
// protocol, so logs go to stderr.
func newLogger(cfg config.Config, stdio bool) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	out := os.Stdout
	if stdio {
		out = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(out, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(out, handlerOpts)), nil
}
