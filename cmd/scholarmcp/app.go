package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	mcpGoServer "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/i2y/scholarmcp/configs"
	"github.com/i2y/scholarmcp/internal/adapter/inbound/scholartools"
	"github.com/i2y/scholarmcp/internal/adapter/outbound/memrepo"
	"github.com/i2y/scholarmcp/internal/adapter/outbound/openapi"
	"github.com/i2y/scholarmcp/internal/adapter/outbound/s2client"
	"github.com/i2y/scholarmcp/internal/telemetry"
	"github.com/i2y/scholarmcp/internal/usecase"
)

// app holds the wired dependencies shared by every subcommand.
type app struct {
	cfg       *configs.Config
	logger    *slog.Logger
	telemetry *telemetry.Provider
	mcpServer *mcpGoServer.MCPServer
	serveUC   *usecase.ServeToolsUseCase
	invokeUC  *usecase.InvokeToolUseCase
}

// newApp wires the API client, the tool registry and the MCP server. The
// returned app must be closed to flush telemetry.
func newApp(ctx context.Context, cfg *configs.Config, logger *slog.Logger) (*app, error) {
	provider, err := telemetry.InitProvider(ctx, cfg.TelemetryConfig(version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, telemetry: provider}

	if err := a.wire(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	metrics, err := telemetry.NewMetrics(a.telemetry.MeterProvider())
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	catalog, err := openapi.LoadCatalog(ctx, a.logger)
	if err != nil {
		return fmt.Errorf("failed to load endpoint catalog: %w", err)
	}

	// Per-attempt deadlines come from the client config, not http.Client.
	client, err := s2client.New(a.cfg.ClientConfig(), a.cfg.APIKey, catalog, &http.Client{}, metrics, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	repo := memrepo.NewInMemoryToolRepository(a.logger)
	a.serveUC = usecase.NewServeToolsUseCase(repo, a.logger)
	a.invokeUC = usecase.NewInvokeToolUseCase(repo, client, usecase.ResultFormat(a.cfg.ResultFormat), metrics, a.logger)
	registerUC := usecase.NewRegisterToolsUseCase(catalog, repo, a.invokeUC, a.logger)

	a.mcpServer = mcpGoServer.NewMCPServer(
		"scholarmcp",
		version,
		mcpGoServer.WithToolCapabilities(true),
		mcpGoServer.WithRecovery(),
	)

	n, err := registerUC.Execute(ctx, scholartools.Tools(a.cfg.ToolsConfig(), a.logger), a.cfg.DisabledTools, a.mcpServer)
	if err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}
	if n == 0 {
		return errors.New("every tool is disabled; nothing to serve")
	}
	return nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Error("Failed to shutdown OpenTelemetry providers.", slog.Any("error", err))
	}
}

// setup is the common preamble of the subcommands.
func setup(cmd *cobra.Command) (*app, func(), error) {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Logger initialized.",
		slog.String("level", cfg.ParsedLogLevel().String()),
		slog.String("transport", cfg.Transport),
		slog.String("config_file", cfg.ConfigFilePath),
	)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Startup failed.", slog.Any("error", err))
		closeLog()
		return nil, nil, err
	}
	return a, func() { a.close(); closeLog() }, nil
}
