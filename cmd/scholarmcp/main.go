// Package main is the entry point for the scholarmcp MCP server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/i2y/scholarmcp/configs"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	configPath string
	transport  string
)

var rootCmd = &cobra.Command{
	Use:   "scholarmcp",
	Short: "MCP server for the Semantic Scholar academic graph",
	Long: `scholarmcp exposes Semantic Scholar paper search, paper and author
lookups, batch retrieval and recommendations as MCP tools.

Run without a subcommand to serve over the configured transport.
Set SEMANTIC_SCHOLAR_API_KEY for higher rate limits.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file or github://owner/repo/path[@ref] (default: "+configs.DefaultConfigFile+" when present)")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "", "transport mode: stdio, sse or http (overrides config)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig applies the --transport override on top of configs.Load.
func loadConfig(ctx context.Context) (*configs.Config, error) {
	cfg, err := configs.Load(ctx, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if transport != "" {
		cfg.Transport = transport
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newLogger writes to the configured log file, or to stderr. stdout is never
// used since the stdio transport owns it.
func newLogger(cfg *configs.Config) (*slog.Logger, func(), error) {
	var w io.Writer = os.Stderr
	closeFn := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.ParsedLogLevel()}))
	slog.SetDefault(logger)
	return logger, closeFn, nil
}
