package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, "llama3.2", req.Model)
		require.NotNil(t, req.Options)
		assert.Equal(t, 64, req.Options.NumPredict)

		_, _ = w.Write([]byte(`{"response":"It is corrosive.","done":true}`))
	}))
	defer srv.Close()

	s := NewLLMService(LLMConfig{BaseURL: srv.URL})
	replies, err := s.Generate(context.Background(), "q", driven.GenerateOptions{MaxTokens: 64})
	require.NoError(t, err)
	assert.Equal(t, []string{"It is corrosive."}, replies)
}

func TestGenerate_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := NewLLMService(LLMConfig{BaseURL: url})
	_, err := s.Generate(context.Background(), "q", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestGenerate_ModelMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model 'x' not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewLLMService(LLMConfig{BaseURL: srv.URL, Model: "x"}).Generate(context.Background(), "q", driven.GenerateOptions{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewLLMService(LLMConfig{BaseURL: srv.URL})
	assert.NoError(t, s.Ping(context.Background()))
	assert.Equal(t, DefaultLLMModel, s.ModelName())
}

func TestGenerate_Busy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"server busy"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewLLMService(LLMConfig{BaseURL: srv.URL}).Generate(context.Background(), "q", driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}
