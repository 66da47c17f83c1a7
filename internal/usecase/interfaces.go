package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpGoServer "github.com/mark3labs/mcp-go/server"

	"github.com/i2y/scholarmcp/internal/domain"
)

// Standard errors returned by use cases and adapters.
var (
	ErrToolNotFound  = errors.New("tool not found")
	ErrDuplicateTool = errors.New("duplicate tool name")
)

// --- Outbound ports ---

// APIClient sends a single logical request to the Semantic Scholar API and
// returns the response body unchanged. Failures are *domain.Error values.
// Implementations must be safe for concurrent use.
type APIClient interface {
	Send(ctx context.Context, req domain.RequestDescriptor) (json.RawMessage, error)
}

// EndpointCatalog knows which API operations the server is allowed to call.
type EndpointCatalog interface {
	// Known returns nil if ep is a known operation with a matching method and
	// path template.
	Known(ep domain.Endpoint) error
}

// ToolRepository stores the registered tool bindings.
type ToolRepository interface {
	// Save stores the bindings. Names must be unique across everything saved.
	Save(ctx context.Context, bindings []ToolBinding) error

	// List retrieves all currently stored tool definitions, ordered by name.
	List(ctx context.Context) ([]domain.Tool, error)

	// FindByName retrieves a binding by its tool name.
	FindByName(ctx context.Context, name string) (*ToolBinding, error)
}

// CallRecorder observes completed tool calls. kind is "" on success.
type CallRecorder interface {
	RecordToolCall(ctx context.Context, tool string, kind domain.ErrorKind, d time.Duration)
}

// --- Tool bindings ---

// ResultFormat selects how successful tool results are rendered.
type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatJSON     ResultFormat = "json"
)

// Call is a single validated tool invocation.
type Call struct {
	ID     string
	Args   domain.Args
	Format ResultFormat
}

// Handler builds request descriptors from validated arguments, sends them
// through api and renders the result.
type Handler func(ctx context.Context, api APIClient, call Call) (string, error)

// ToolBinding pairs a tool definition with the handler that implements it.
type ToolBinding struct {
	Tool    domain.Tool
	Handler Handler
}

// --- MCP Server Abstraction ---

// MCPServerAdapter is the subset of the mcp-go server used to register tools.
type MCPServerAdapter interface {
	AddTool(tool mcp.Tool, handlerFunc mcpGoServer.ToolHandlerFunc)
}
