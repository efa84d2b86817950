package cohere

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(Config{})
	var cfgErr *domain.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "llm.api_key", cfgErr.Field)

	s, err := NewLLMService(Config{APIKey: "co"})
	require.NoError(t, err)
	assert.Equal(t, "command-r", s.ModelName())
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/chat", r.URL.Path)
		assert.Equal(t, "Bearer co", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		require.NotNil(t, req.Temperature)
		assert.InDelta(t, 0.3, *req.Temperature, 1e-9)

		_, _ = w.Write([]byte(`{"id":"1","finish_reason":"COMPLETE","message":{"role":"assistant",
			"content":[{"type":"text","text":"Sulfuric acid is a corrosive mineral acid."}]}}`))
	}))
	defer srv.Close()

	s, err := NewLLMService(Config{APIKey: "co", BaseURL: srv.URL})
	require.NoError(t, err)

	replies, err := s.Generate(context.Background(), "q", driven.GenerateOptions{Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sulfuric acid is a corrosive mineral acid."}, replies)
}

func TestGenerate_StatusErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		unavailable bool
	}{
		{"unauthorized", http.StatusUnauthorized, false},
		{"rate limited", http.StatusTooManyRequests, true},
		{"unavailable", http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			defer srv.Close()

			s, err := NewLLMService(Config{APIKey: "co", BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = s.Generate(context.Background(), "q", driven.GenerateOptions{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "nope")
			assert.Equal(t, tt.unavailable, errors.Is(err, domain.ErrLLMUnavailable))
		})
	}
}

func TestGenerate_ReplyText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "assistant message",
			body: `{"message":{"role":"assistant","content":[{"type":"text","text":"It is used in batteries."}]}}`,
			want: []string{"It is used in batteries."},
		},
		{
			name: "text parts joined",
			body: `{"message":{"role":"assistant","content":[{"type":"text","text":"Keep closed. "},{"type":"thinking","text":"x"},{"type":"text","text":"Store cool."}]}}`,
			want: []string{"Keep closed. Store cool."},
		},
		{
			name: "no text",
			body: `{"message":{"role":"assistant","content":[]}}`,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s, err := NewLLMService(Config{APIKey: "co", BaseURL: srv.URL})
			require.NoError(t, err)

			replies, err := s.Generate(context.Background(), "q", driven.GenerateOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, replies)
		})
	}
}
