package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/i2y/scholarmcp/internal/domain"
	"github.com/i2y/scholarmcp/internal/usecase"
)

func paperBinding() *usecase.ToolBinding {
	return &usecase.ToolBinding{
		Tool: domain.Tool{
			Name:        "get_paper_details",
			Description: "Get a paper",
			Args: []domain.ArgSpec{
				{Name: "paper_id", Type: domain.ArgString, Required: true},
			},
			Endpoints: []domain.Endpoint{domain.EndpointPaper},
		},
		Handler: func(ctx context.Context, api usecase.APIClient, call usecase.Call) (string, error) {
			raw, err := api.Send(ctx, domain.RequestDescriptor{
				Endpoint:   domain.EndpointPaper,
				PathParams: map[string]string{"paper_id": call.Args.String("paper_id")},
			})
			if err != nil {
				return "", err
			}
			return string(call.Format) + ":" + string(raw), nil
		},
	}
}

func TestInvokeToolUseCase_Execute(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	toolName := "get_paper_details"
	wantReq := domain.RequestDescriptor{
		Endpoint:   domain.EndpointPaper,
		PathParams: map[string]string{"paper_id": "abc123"},
	}
	apiErr := &domain.Error{Kind: domain.KindClientError, Endpoint: "paper.get", Status: 404, Message: "Paper not found", Attempts: 1}

	tests := []struct {
		name      string
		mockSetup func(*MockToolRepository, *MockAPIClient)
		inParams  map[string]any
		wantErr   bool
		wantKind  domain.ErrorKind
		want      string
	}{
		{
			name: "Success - tool invoked",
			mockSetup: func(repo *MockToolRepository, api *MockAPIClient) {
				repo.On("FindByName", mock.Anything, toolName).Return(paperBinding(), nil).Once()
				api.On("Send", mock.Anything, wantReq).Return(json.RawMessage(`{"title":"Example Paper"}`), nil).Once()
			},
			inParams: map[string]any{"paper_id": "abc123"},
			want:     `markdown:{"title":"Example Paper"}`,
		},
		{
			name: "Failure - unknown tool",
			mockSetup: func(repo *MockToolRepository, api *MockAPIClient) {
				repo.On("FindByName", mock.Anything, toolName).Return(nil, usecase.ErrToolNotFound).Once()
			},
			inParams: map[string]any{"paper_id": "abc123"},
			wantErr:  true,
			wantKind: domain.KindValidation,
		},
		{
			name: "Failure - repository error",
			mockSetup: func(repo *MockToolRepository, api *MockAPIClient) {
				repo.On("FindByName", mock.Anything, toolName).Return(nil, errors.New("boom")).Once()
			},
			inParams: map[string]any{"paper_id": "abc123"},
			wantErr:  true,
			wantKind: domain.KindInternal,
		},
		{
			name: "Failure - invalid arguments never reach the API",
			mockSetup: func(repo *MockToolRepository, api *MockAPIClient) {
				repo.On("FindByName", mock.Anything, toolName).Return(paperBinding(), nil).Once()
			},
			inParams: map[string]any{},
			wantErr:  true,
			wantKind: domain.KindValidation,
		},
		{
			name: "Failure - API error kind preserved",
			mockSetup: func(repo *MockToolRepository, api *MockAPIClient) {
				repo.On("FindByName", mock.Anything, toolName).Return(paperBinding(), nil).Once()
				api.On("Send", mock.Anything, wantReq).Return(nil, apiErr).Once()
			},
			inParams: map[string]any{"paper_id": "abc123"},
			wantErr:  true,
			wantKind: domain.KindClientError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockToolRepository)
			mockAPI := new(MockAPIClient)
			tt.mockSetup(mockRepo, mockAPI)

			uc := usecase.NewInvokeToolUseCase(mockRepo, mockAPI, "", nil, testLogger())
			result, err := uc.Execute(ctx, toolName, tt.inParams)

			if tt.wantErr {
				assert.Error(err)
				assert.Equal(tt.wantKind, domain.KindOf(err))
				assert.Empty(result)
			} else {
				assert.NoError(err)
				assert.Equal(tt.want, result)
			}

			mockRepo.AssertExpectations(t)
			mockAPI.AssertExpectations(t)
		})
	}
}

type recordedCall struct {
	tool string
	kind domain.ErrorKind
}

type fakeRecorder struct {
	calls []recordedCall
}

func (f *fakeRecorder) RecordToolCall(_ context.Context, tool string, kind domain.ErrorKind, _ time.Duration) {
	f.calls = append(f.calls, recordedCall{tool: tool, kind: kind})
}

func TestInvokeToolUseCase_RecordsOutcome(t *testing.T) {
	ctx := context.Background()
	repo := new(MockToolRepository)
	api := new(MockAPIClient)
	repo.On("FindByName", mock.Anything, "get_paper_details").Return(paperBinding(), nil)
	api.On("Send", mock.Anything, mock.Anything).Return(json.RawMessage(`{}`), nil).Once()

	rec := &fakeRecorder{}
	uc := usecase.NewInvokeToolUseCase(repo, api, usecase.FormatMarkdown, rec, testLogger())

	_, err := uc.Execute(ctx, "get_paper_details", map[string]any{"paper_id": "abc123"})
	assert.NoError(t, err)
	_, err = uc.Execute(ctx, "get_paper_details", map[string]any{})
	assert.Error(t, err)

	assert.Equal(t, []recordedCall{
		{tool: "get_paper_details", kind: ""},
		{tool: "get_paper_details", kind: domain.KindValidation},
	}, rec.calls)
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "Validation",
			err:  domain.NewValidationError("argument %q is required", "keyword"),
			want: `Error (validation): argument "keyword" is required`,
		},
		{
			name: "Rate limited after retries",
			err:  &domain.Error{Kind: domain.KindRateLimited, Status: 429, Message: "Too Many Requests", Attempts: 3},
			want: "Error (rate_limited): Too Many Requests (HTTP 429) after 3 attempts",
		},
		{
			name: "Wrapped network error",
			err:  errors.Join(errors.New("ctx"), &domain.Error{Kind: domain.KindTransientNetwork, Err: context.DeadlineExceeded, Attempts: 1}),
			want: "Error (transient_network): context deadline exceeded",
		},
		{
			name: "Plain error",
			err:  errors.New("boom"),
			want: "Error (internal): boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, usecase.ErrorText(tt.err))
		})
	}
}
