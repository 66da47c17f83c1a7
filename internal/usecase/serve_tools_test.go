package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/i2y/scholarmcp/internal/domain"
	"github.com/i2y/scholarmcp/internal/usecase"
)

// MockToolRepository is a mock implementation of the ToolRepository interface.
type MockToolRepository struct {
	mock.Mock
}

func (m *MockToolRepository) Save(ctx context.Context, bindings []usecase.ToolBinding) error {
	args := m.Called(ctx, bindings)
	return args.Error(0)
}

func (m *MockToolRepository) List(ctx context.Context) ([]domain.Tool, error) {
	args := m.Called(ctx)
	result := args.Get(0)
	if result == nil {
		return nil, args.Error(1)
	}
	return result.([]domain.Tool), args.Error(1)
}

func (m *MockToolRepository) FindByName(ctx context.Context, name string) (*usecase.ToolBinding, error) {
	args := m.Called(ctx, name)
	result := args.Get(0)
	if result == nil {
		return nil, args.Error(1)
	}
	return result.(*usecase.ToolBinding), args.Error(1)
}

// MockAPIClient is a mock implementation of the APIClient interface.
type MockAPIClient struct {
	mock.Mock
}

func (m *MockAPIClient) Send(ctx context.Context, req domain.RequestDescriptor) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	result := args.Get(0)
	if result == nil {
		return nil, args.Error(1)
	}
	return result.(json.RawMessage), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestServeToolsUseCase_Execute(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	expectedTools := []domain.Tool{
		{Name: "search_authors", Description: "Search authors"},
		{Name: "search_papers_via_semanticscholar", Description: "Search papers"},
	}
	repoError := errors.New("repository error")

	tests := []struct {
		name          string
		mockSetup     func(*MockToolRepository)
		wantErr       bool
		wantTools     []domain.Tool
		expectErrText string
	}{
		{
			name: "Success - tools found",
			mockSetup: func(repo *MockToolRepository) {
				repo.On("List", ctx).Return(expectedTools, nil).Once()
			},
			wantTools: expectedTools,
		},
		{
			name: "Success - no tools",
			mockSetup: func(repo *MockToolRepository) {
				repo.On("List", ctx).Return([]domain.Tool{}, nil).Once()
			},
			wantTools: []domain.Tool{},
		},
		{
			name: "Failure - repository error",
			mockSetup: func(repo *MockToolRepository) {
				repo.On("List", ctx).Return(nil, repoError).Once()
			},
			wantErr:       true,
			expectErrText: "failed to list tools from repository: repository error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockToolRepository)
			tt.mockSetup(mockRepo)

			uc := usecase.NewServeToolsUseCase(mockRepo, testLogger())
			tools, err := uc.Execute(ctx)

			if tt.wantErr {
				assert.EqualError(err, tt.expectErrText)
				assert.Nil(tools)
			} else {
				assert.NoError(err)
				assert.Equal(tt.wantTools, tools)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}
