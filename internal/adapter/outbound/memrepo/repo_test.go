package memrepo_test

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/scholarmcp/internal/adapter/outbound/memrepo"
	"github.com/i2y/scholarmcp/internal/domain"
	"github.com/i2y/scholarmcp/internal/usecase"
)

func newTestRepo(t *testing.T) *memrepo.InMemoryToolRepository {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return memrepo.NewInMemoryToolRepository(logger)
}

func binding(name string) usecase.ToolBinding {
	return usecase.ToolBinding{
		Tool: domain.Tool{Name: name, Description: name + " tool"},
		Handler: func(context.Context, usecase.APIClient, usecase.Call) (string, error) {
			return name, nil
		},
	}
}

func TestInMemoryToolRepository_SaveAndList(t *testing.T) {
	tests := []struct {
		name        string
		in          []usecase.ToolBinding
		wantSaveErr string
		wantNames   []string
	}{
		{name: "Save single tool", in: []usecase.ToolBinding{binding("search_authors")}, wantNames: []string{"search_authors"}},
		{
			name:      "Save multiple tools listed by name",
			in:        []usecase.ToolBinding{binding("get_paper_details"), binding("b_tool"), binding("a_tool")},
			wantNames: []string{"a_tool", "b_tool", "get_paper_details"},
		},
		{name: "Save empty list", in: []usecase.ToolBinding{}, wantNames: []string{}},
		{
			name:        "Duplicate in batch",
			in:          []usecase.ToolBinding{binding("x"), binding("x")},
			wantSaveErr: "duplicate tool name: x",
			wantNames:   []string{},
		},
		{
			name:        "Empty name",
			in:          []usecase.ToolBinding{binding("ok"), binding("")},
			wantSaveErr: "has no name",
			wantNames:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := newTestRepo(t)

			err := repo.Save(ctx, tt.in)
			if tt.wantSaveErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantSaveErr)
			} else {
				require.NoError(t, err)
			}

			list, err := repo.List(ctx)
			require.NoError(t, err)
			names := make([]string, 0, len(list))
			for _, tool := range list {
				names = append(names, tool.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestInMemoryToolRepository_RejectsAlreadyStored(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.Save(ctx, []usecase.ToolBinding{binding("search_authors")}))
	err := repo.Save(ctx, []usecase.ToolBinding{binding("search_authors")})
	assert.ErrorIs(t, err, usecase.ErrDuplicateTool)
}

func TestInMemoryToolRepository_FindByName(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.Save(ctx, []usecase.ToolBinding{binding("search_authors")}))

	found, err := repo.FindByName(ctx, "search_authors")
	require.NoError(t, err)
	assert.Equal(t, "search_authors", found.Tool.Name)
	out, err := found.Handler(ctx, nil, usecase.Call{})
	require.NoError(t, err)
	assert.Equal(t, "search_authors", out)

	_, err = repo.FindByName(ctx, "missing")
	assert.ErrorIs(t, err, usecase.ErrToolNotFound)
}

func TestInMemoryToolRepository_ConcurrentReads(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.Save(ctx, []usecase.ToolBinding{binding("a"), binding("b")}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.FindByName(ctx, "a")
			assert.NoError(t, err)
			_, err = repo.List(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
