package memrepo

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/i2y/scholarmcp/internal/domain"
	"github.com/i2y/scholarmcp/internal/usecase"
)

// InMemoryToolRepository is the tool registry: tool name to binding.
// It is filled once at startup and read concurrently afterwards.
type InMemoryToolRepository struct {
	mu       sync.RWMutex
	bindings map[string]usecase.ToolBinding
	logger   *slog.Logger
}

// NewInMemoryToolRepository creates a new in-memory repository.
func NewInMemoryToolRepository(logger *slog.Logger) *InMemoryToolRepository {
	return &InMemoryToolRepository{
		bindings: make(map[string]usecase.ToolBinding),
		logger:   logger.With("component", "mem_repo"),
	}
}

// Save stores the given bindings. A name that is empty, repeated within the
// batch, or already stored rejects the whole batch.
func (r *InMemoryToolRepository) Save(ctx context.Context, bindings []usecase.ToolBinding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch := make(map[string]bool, len(bindings))
	for i, b := range bindings {
		name := b.Tool.Name
		if name == "" {
			r.logger.Error("Rejecting tool with empty name", slog.Int("index", i))
			return fmt.Errorf("save failed: tool at index %d has no name", i)
		}
		if _, exists := r.bindings[name]; exists || batch[name] {
			r.logger.Error("Rejecting duplicate tool", slog.String("tool_name", name))
			return fmt.Errorf("save failed: %w: %s", usecase.ErrDuplicateTool, name)
		}
		batch[name] = true
	}

	for _, b := range bindings {
		r.bindings[b.Tool.Name] = b
	}
	r.logger.Info("Saved tools", slog.Int("count", len(bindings)), slog.Int("total_tools", len(r.bindings)))
	return nil
}

// List returns all tool definitions ordered by name.
func (r *InMemoryToolRepository) List(ctx context.Context) ([]domain.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]domain.Tool, 0, len(r.bindings))
	for _, b := range r.bindings {
		list = append(list, b.Tool)
	}
	slices.SortFunc(list, func(a, b domain.Tool) int { return strings.Compare(a.Name, b.Name) })
	r.logger.Debug("Listed tools from repository", slog.Int("count", len(list)))
	return list, nil
}

// FindByName retrieves a binding by tool name.
func (r *InMemoryToolRepository) FindByName(ctx context.Context, name string) (*usecase.ToolBinding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bindings[name]
	if !ok {
		r.logger.Warn("Tool not found", slog.String("tool_name", name))
		return nil, usecase.ErrToolNotFound
	}
	return &b, nil
}
