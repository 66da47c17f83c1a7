package mcphttp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/i2y/scholarmcp/internal/domain"
	"github.com/i2y/scholarmcp/internal/usecase"
)

// Handlers struct holds dependencies for the HTTP handlers.
type Handlers struct {
	serveToolsUseCase *usecase.ServeToolsUseCase
	invokeToolUseCase *usecase.InvokeToolUseCase
	metricsHandler    http.Handler
	logger            *slog.Logger
}

// NewHandlers creates a new Handlers struct. metrics may be nil, in which
// case /metrics is not served.
func NewHandlers(
	serveUC *usecase.ServeToolsUseCase,
	invokeUC *usecase.InvokeToolUseCase,
	metrics http.Handler,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		serveToolsUseCase: serveUC,
		invokeToolUseCase: invokeUC,
		metricsHandler:    metrics,
		logger:            logger.With("component", "mcphttp_handler"),
	}
}

// RegisterAdminRoutes sets up the HTTP routes for admin endpoints.
func (h *Handlers) RegisterAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /admin/tools", h.handleListTools)
	mux.HandleFunc("POST /admin/tools/{name}/call", h.handleCallTool)
	if h.metricsHandler != nil {
		mux.Handle("GET /metrics", h.metricsHandler)
	}
}

func (h *Handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// handleListTools implements GET /admin/tools
func (h *Handlers) handleListTools(w http.ResponseWriter, r *http.Request) {
	tools, err := h.serveToolsUseCase.Execute(r.Context())
	if err != nil {
		h.logger.Error("Failed to list tools", slog.Any("error", err))
		http.Error(w, fmt.Sprintf("Failed to list tools: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tools)
}

// CallResponse is the JSON body returned by POST /admin/tools/{name}/call.
type CallResponse struct {
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	Kind   string `json:"kind,omitempty"`
}

// handleCallTool implements POST /admin/tools/{name}/call. The body is the
// tool's JSON arguments object; an empty body means no arguments.
func (h *Handlers) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	defer r.Body.Close()

	params := map[string]any{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			h.logger.Warn("Failed to decode tool call body", slog.String("tool_name", name), slog.Any("error", err))
			http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
			return
		}
	}

	h.logger.Info("Received admin tool call", slog.String("tool_name", name))
	result, err := h.invokeToolUseCase.Execute(r.Context(), name, params)
	if err != nil {
		kind := domain.KindOf(err)
		writeJSON(w, statusFor(kind), CallResponse{Error: usecase.ErrorText(err), Kind: string(kind)})
		return
	}
	writeJSON(w, http.StatusOK, CallResponse{Result: result})
}

// statusFor maps an error kind onto the admin API's HTTP status.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindTransientNetwork:
		return http.StatusGatewayTimeout
	case domain.KindClientError, domain.KindServerError, domain.KindParseError:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
