package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	mcpGoServer "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/i2y/scholarmcp/configs"
	"github.com/i2y/scholarmcp/internal/adapter/inbound/mcphttp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the MCP tools over stdio, SSE or streamable HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// mcpTransport is the common surface of the mcp-go network transports.
type mcpTransport interface {
	Start(addr string) error
	Shutdown(ctx context.Context) error
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	switch a.cfg.Transport {
	case configs.TransportStdio:
		return a.serveStdio(ctx)
	case configs.TransportSSE:
		base := a.cfg.PublicBaseURL
		if base == "" {
			base = "http://" + a.cfg.ListenAddr
		}
		return a.serveNetwork(ctx, mcpGoServer.NewSSEServer(a.mcpServer, mcpGoServer.WithBaseURL(base)))
	default:
		return a.serveNetwork(ctx, mcpGoServer.NewStreamableHTTPServer(a.mcpServer, mcpGoServer.WithStateLess(true)))
	}
}

func (a *app) serveStdio(ctx context.Context) error {
	a.logger.Info("Starting in STDIO mode")

	stdioServer := mcpGoServer.NewStdioServer(a.mcpServer)
	stdioServer.SetErrorLogger(slog.NewLogLogger(a.logger.Handler(), slog.LevelError))

	// Listen returns when stdin closes or ctx is cancelled.
	if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("STDIO server error", slog.Any("error", err))
		return err
	}
	a.logger.Info("STDIO server stopped")
	return nil
}

func (a *app) serveNetwork(ctx context.Context, mcpSrv mcpTransport) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	// === Admin HTTP Server Setup ===
	var metricsHandler http.Handler
	if a.cfg.MetricsEnabled {
		metricsHandler = a.telemetry.MetricsHandler()
	}
	adminMux := http.NewServeMux()
	mcphttp.NewHandlers(a.serveUC, a.invokeUC, metricsHandler, a.logger).RegisterAdminRoutes(adminMux)
	adminServer := &http.Server{
		Addr:              a.cfg.AdminAddr,
		Handler:           adminMux,
		ReadHeaderTimeout: a.cfg.ServerReadTimeout,
		IdleTimeout:       a.cfg.ServerIdleTimeout,
	}
	go func() {
		a.logger.Info("Admin HTTP server starting.", slog.String("address", adminServer.Addr))
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Admin HTTP server failed to start.", slog.Any("error", err))
			stop()
		}
	}()

	// === MCP Server Startup ===
	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("MCP server starting.", slog.String("transport", a.cfg.Transport), slog.String("address", a.cfg.ListenAddr))
		if err := mcpSrv.Start(a.cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("MCP server failed to start.", slog.Any("error", err))
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()

	// === Server Shutdown ===
	a.logger.Info("Shutting down servers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Admin HTTP server graceful shutdown failed.", slog.Any("error", err))
	}
	if err := mcpSrv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("MCP server graceful shutdown failed.", slog.Any("error", err))
	}
	a.logger.Info("Servers shut down.")

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}
