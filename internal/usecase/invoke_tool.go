package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/i2y/scholarmcp/internal/domain"
)

// InvokeToolUseCase handles a single tool call: lookup, argument validation,
// and delegation to the tool's handler.
type InvokeToolUseCase struct {
	repository ToolRepository
	api        APIClient
	format     ResultFormat
	recorder   CallRecorder
	logger     *slog.Logger
}

// NewInvokeToolUseCase creates a new InvokeToolUseCase. An empty format
// defaults to markdown; recorder may be nil.
func NewInvokeToolUseCase(repo ToolRepository, api APIClient, format ResultFormat, recorder CallRecorder, logger *slog.Logger) *InvokeToolUseCase {
	if format == "" {
		format = FormatMarkdown
	}
	return &InvokeToolUseCase{
		repository: repo,
		api:        api,
		format:     format,
		recorder:   recorder,
		logger:     logger.With("usecase", "InvokeTool"),
	}
}

// Execute finds the tool, validates params against its argument specs and
// runs its handler. Validation failures never reach the API client.
func (uc *InvokeToolUseCase) Execute(ctx context.Context, toolName string, params map[string]any) (result string, err error) {
	if uc.recorder != nil {
		start := time.Now()
		defer func() {
			uc.recorder.RecordToolCall(ctx, toolName, domain.KindOf(err), time.Since(start))
		}()
	}

	callID := uuid.NewString()
	log := uc.logger.With(slog.String("tool_name", toolName), slog.String("call_id", callID))
	log.Info("Executing tool invocation")

	binding, err := uc.repository.FindByName(ctx, toolName)
	if err != nil {
		log.Warn("Tool not found", slog.Any("error", err))
		if errors.Is(err, ErrToolNotFound) {
			return "", domain.NewValidationError("unknown tool %q", toolName)
		}
		return "", fmt.Errorf("tool '%s' lookup failed: %w", toolName, err)
	}

	args, err := domain.ValidateArgs(binding.Tool.Args, params)
	if err != nil {
		log.Warn("Invalid tool arguments", slog.Any("error", err))
		return "", err
	}
	log.Debug("Arguments validated", slog.Any("args", args))

	result, err = binding.Handler(ctx, uc.api, Call{ID: callID, Args: args, Format: uc.format})
	if err != nil {
		log.Error("Tool invocation failed", slog.Any("error", err), slog.String("kind", string(domain.KindOf(err))))
		return "", fmt.Errorf("failed to invoke tool %s: %w", toolName, err)
	}

	log.Info("Tool invocation successful", slog.Int("result_bytes", len(result)))
	return result, nil
}

// ErrorText renders err as the uniform message returned to the host:
// "Error (<kind>): <message>".
func ErrorText(err error) string {
	kind := domain.KindOf(err)
	var de *domain.Error
	if !errors.As(err, &de) {
		return fmt.Sprintf("Error (%s): %s", kind, err.Error())
	}

	msg := de.Message
	if msg == "" && de.Err != nil {
		msg = de.Err.Error()
	}
	if msg == "" {
		msg = "request failed"
	}
	if de.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, de.Status)
	}
	if de.Attempts > 1 {
		msg = fmt.Sprintf("%s after %d attempts", msg, de.Attempts)
	}
	return fmt.Sprintf("Error (%s): %s", kind, msg)
}
