package domain_test

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i2y/scholarmcp/internal/domain"
)

func validTool() domain.Tool {
	return domain.Tool{
		Name:        "get_paper_details",
		Description: "Get a paper.",
		Args: []domain.ArgSpec{
			{Name: "paper_id", Type: domain.ArgString, Required: true},
			{Name: "limit", Type: domain.ArgInteger, Min: domain.Bound(1), Max: domain.Bound(10), Default: 5},
		},
		Endpoints: []domain.Endpoint{domain.EndpointPaper},
	}
}

func TestTool_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Tool)
		wantErr string
	}{
		{name: "Valid", mutate: func(*domain.Tool) {}},
		{name: "Bad name", mutate: func(tl *domain.Tool) { tl.Name = "has space" }, wantErr: "must match"},
		{name: "No description", mutate: func(tl *domain.Tool) { tl.Description = "" }, wantErr: "description"},
		{name: "No endpoints", mutate: func(tl *domain.Tool) { tl.Endpoints = nil }, wantErr: "endpoint"},
		{
			name:    "Duplicate argument",
			mutate:  func(tl *domain.Tool) { tl.Args = append(tl.Args, tl.Args[0]) },
			wantErr: "duplicate argument",
		},
		{
			name:    "Unknown type",
			mutate:  func(tl *domain.Tool) { tl.Args[0].Type = "object" },
			wantErr: "unknown type",
		},
		{
			name:    "Inverted bounds",
			mutate:  func(tl *domain.Tool) { tl.Args[1].Min = domain.Bound(20) },
			wantErr: "exceeds maximum",
		},
		{
			name:    "Default out of range",
			mutate:  func(tl *domain.Tool) { tl.Args[1].Default = 50 },
			wantErr: "invalid default",
		},
		{
			name:    "Required with default",
			mutate:  func(tl *domain.Tool) { tl.Args[0].Default = "x" },
			wantErr: "cannot have a default",
		},
		{
			name: "Enum on non-string",
			mutate: func(tl *domain.Tool) {
				tl.Args[1].Enum = []string{"a"}
			},
			wantErr: "enum is only allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := validTool()
			tt.mutate(&tl)
			err := tl.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestError_FormattingAndKind(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := &domain.Error{Kind: domain.KindServerError, Endpoint: "paper.get", Status: 503, Message: "unavailable", Attempts: 3}
	assert.Equal(t, "server_error: paper.get: HTTP 503: unavailable", err.Error())

	netErr := &domain.Error{Kind: domain.KindTransientNetwork, Endpoint: "paper.get", Err: cause}
	assert.Equal(t, "transient_network: paper.get: connection reset by peer", netErr.Error())
	assert.ErrorIs(t, netErr, cause)

	wrapped := fmt.Errorf("tool failed: %w", err)
	assert.Equal(t, domain.KindServerError, domain.KindOf(wrapped))
	assert.Equal(t, domain.KindInternal, domain.KindOf(errors.New("boom")))
	assert.Equal(t, domain.ErrorKind(""), domain.KindOf(nil))

	assert.True(t, domain.KindRateLimited.Retryable())
	assert.True(t, domain.KindServerError.Retryable())
	assert.True(t, domain.KindTransientNetwork.Retryable())
	assert.False(t, domain.KindClientError.Retryable())
	assert.False(t, domain.KindParseError.Retryable())
	assert.False(t, domain.KindValidation.Retryable())
}

func TestCredential_Redacts(t *testing.T) {
	c := domain.Credential("secret-key")
	assert.True(t, c.Present())
	assert.Equal(t, "secret-key", c.Value())
	assert.Equal(t, "[REDACTED]", c.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", c))

	var sb strings.Builder
	logger := slog.New(slog.NewTextHandler(&sb, nil))
	logger.Info("config", slog.Any("api_key", c))
	assert.NotContains(t, sb.String(), "secret-key")

	assert.False(t, domain.Credential("").Present())
	assert.Equal(t, "", domain.Credential("").String())
}
