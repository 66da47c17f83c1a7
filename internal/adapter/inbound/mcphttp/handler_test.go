package mcphttp_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/scholarmcp/internal/adapter/inbound/mcphttp"
	"github.com/i2y/scholarmcp/internal/adapter/outbound/memrepo"
	"github.com/i2y/scholarmcp/internal/domain"
	"github.com/i2y/scholarmcp/internal/usecase"
)

type stubAPI struct {
	body json.RawMessage
	err  error
}

func (s stubAPI) Send(context.Context, domain.RequestDescriptor) (json.RawMessage, error) {
	return s.body, s.err
}

func newMux(t *testing.T, api usecase.APIClient, metrics http.Handler) *http.ServeMux {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo := memrepo.NewInMemoryToolRepository(logger)
	require.NoError(t, repo.Save(context.Background(), []usecase.ToolBinding{{
		Tool: domain.Tool{
			Name:        "get_paper_details",
			Description: "Get a paper",
			Args:        []domain.ArgSpec{{Name: "paper_id", Type: domain.ArgString, Required: true}},
			Endpoints:   []domain.Endpoint{domain.EndpointPaper},
		},
		Handler: func(ctx context.Context, api usecase.APIClient, call usecase.Call) (string, error) {
			raw, err := api.Send(ctx, domain.RequestDescriptor{
				Endpoint:   domain.EndpointPaper,
				PathParams: map[string]string{"paper_id": call.Args.String("paper_id")},
			})
			return string(raw), err
		},
	}}))

	h := mcphttp.NewHandlers(
		usecase.NewServeToolsUseCase(repo, logger),
		usecase.NewInvokeToolUseCase(repo, api, usecase.FormatJSON, nil, logger),
		metrics,
		logger,
	)
	mux := http.NewServeMux()
	h.RegisterAdminRoutes(mux)
	return mux
}

func TestHealthz(t *testing.T) {
	mux := newMux(t, stubAPI{}, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestListTools(t *testing.T) {
	mux := newMux(t, stubAPI{}, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/tools", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var tools []domain.Tool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tools))
	require.Len(t, tools, 1)
	assert.Equal(t, "get_paper_details", tools[0].Name)
	assert.Equal(t, []domain.Endpoint{domain.EndpointPaper}, tools[0].Endpoints)
}

func TestCallTool(t *testing.T) {
	tests := []struct {
		name       string
		api        stubAPI
		tool       string
		body       string
		wantStatus int
		want       mcphttp.CallResponse
	}{
		{
			name:       "Success",
			api:        stubAPI{body: json.RawMessage(`{"title":"Example Paper"}`)},
			tool:       "get_paper_details",
			body:       `{"paper_id":"abc123"}`,
			wantStatus: http.StatusOK,
			want:       mcphttp.CallResponse{Result: `{"title":"Example Paper"}`},
		},
		{
			name:       "Missing argument",
			tool:       "get_paper_details",
			wantStatus: http.StatusBadRequest,
			want:       mcphttp.CallResponse{Error: `Error (validation): argument "paper_id" is required`, Kind: "validation"},
		},
		{
			name:       "Unknown tool",
			tool:       "nope",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			want:       mcphttp.CallResponse{Error: `Error (validation): unknown tool "nope"`, Kind: "validation"},
		},
		{
			name:       "Rate limited",
			api:        stubAPI{err: &domain.Error{Kind: domain.KindRateLimited, Status: 429, Message: "Too Many Requests", Attempts: 3}},
			tool:       "get_paper_details",
			body:       `{"paper_id":"abc123"}`,
			wantStatus: http.StatusTooManyRequests,
			want:       mcphttp.CallResponse{Error: "Error (rate_limited): Too Many Requests (HTTP 429) after 3 attempts", Kind: "rate_limited"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newMux(t, tt.api, nil)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/admin/tools/"+tt.tool+"/call", strings.NewReader(tt.body))
			mux.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			var got mcphttp.CallResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCallTool_InvalidBody(t *testing.T) {
	mux := newMux(t, stubAPI{}, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/tools/get_paper_details/call", strings.NewReader("{")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsRoute(t *testing.T) {
	t.Run("served when configured", func(t *testing.T) {
		metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "# metrics\n")
		})
		mux := newMux(t, stubAPI{}, metrics)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "# metrics\n", rec.Body.String())
	})

	t.Run("absent otherwise", func(t *testing.T) {
		mux := newMux(t, stubAPI{}, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
