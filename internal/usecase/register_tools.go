package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	mcpGoServer "github.com/mark3labs/mcp-go/server"
)

// RegisterToolsUseCase validates the tool table at startup, stores it in the
// repository and registers every enabled tool with the MCP server.
type RegisterToolsUseCase struct {
	catalog    EndpointCatalog
	repository ToolRepository
	invoker    *InvokeToolUseCase
	logger     *slog.Logger
}

// NewRegisterToolsUseCase creates a new RegisterToolsUseCase.
func NewRegisterToolsUseCase(
	catalog EndpointCatalog,
	repository ToolRepository,
	invoker *InvokeToolUseCase,
	logger *slog.Logger,
) *RegisterToolsUseCase {
	return &RegisterToolsUseCase{
		catalog:    catalog,
		repository: repository,
		invoker:    invoker,
		logger:     logger.With("usecase", "RegisterTools"),
	}
}

// Execute validates every binding, skips those named in disabled, and
// registers the rest with srv. Any invalid definition fails the whole table
// so the process never serves a partially valid tool set. It returns the
// number of tools registered.
func (uc *RegisterToolsUseCase) Execute(ctx context.Context, bindings []ToolBinding, disabled []string, srv MCPServerAdapter) (int, error) {
	uc.logger.Info("Validating tool table", slog.Int("tool_count", len(bindings)))

	seen := make(map[string]bool, len(bindings))
	for _, b := range bindings {
		if err := b.Tool.Validate(); err != nil {
			return 0, fmt.Errorf("invalid tool definition: %w", err)
		}
		if b.Handler == nil {
			return 0, fmt.Errorf("tool %q has no handler", b.Tool.Name)
		}
		if seen[b.Tool.Name] {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateTool, b.Tool.Name)
		}
		seen[b.Tool.Name] = true
		for _, ep := range b.Tool.Endpoints {
			if err := uc.catalog.Known(ep); err != nil {
				return 0, fmt.Errorf("tool %q: %w", b.Tool.Name, err)
			}
		}
	}
	for _, name := range disabled {
		if !seen[name] {
			uc.logger.Warn("Disabled tool is not defined", slog.String("tool_name", name))
		}
	}

	enabled := make([]ToolBinding, 0, len(bindings))
	for _, b := range bindings {
		if slices.Contains(disabled, b.Tool.Name) {
			uc.logger.Info("Tool disabled by configuration", slog.String("tool_name", b.Tool.Name))
			continue
		}
		enabled = append(enabled, b)
	}

	if err := uc.repository.Save(ctx, enabled); err != nil {
		uc.logger.Error("Failed to save tools", slog.Any("error", err))
		return 0, fmt.Errorf("failed to save tools: %w", err)
	}

	for _, b := range enabled {
		srv.AddTool(BuildMCPTool(b.Tool), uc.handlerFor(b.Tool.Name))
		uc.logger.Debug("Registered tool", slog.String("tool_name", b.Tool.Name))
	}

	uc.logger.Info("Registered tools", slog.Int("tool_count", len(enabled)))
	return len(enabled), nil
}

// handlerFor adapts InvokeToolUseCase to the mcp-go handler signature. Tool
// failures are reported as error results, never as Go errors, so the host
// always gets a well-formed response.
func (uc *RegisterToolsUseCase) handlerFor(name string) mcpGoServer.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := uc.invoker.Execute(ctx, name, request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(ErrorText(err)), nil
		}
		return mcp.NewToolResultText(result), nil
	}
}
