package layout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "msds.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0o600))
	return path
}

func newTestExtractor(t *testing.T, endpoint string) *Extractor {
	t.Helper()
	e, err := New(Config{
		Endpoint:     endpoint,
		APIKey:       "test-key",
		PollInterval: time.Millisecond,
		Timeout:      5 * time.Second,
	})
	require.NoError(t, err)
	return e
}

// layoutServer serves one analysis that reports running pending times
// before succeeding with result.
func layoutServer(t *testing.T, pending int, result operation) (*httptest.Server, *int32) {
	t.Helper()
	var polls int32

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/documentintelligence/documentModels/prebuilt-layout:analyze", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
		assert.Equal(t, DefaultAPIVersion, r.URL.Query().Get("api-version"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "%PDF-1.4 fake", string(body))

		w.Header().Set("Operation-Location", srv.URL+"/operations/1")
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/operations/1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		w.Header().Set("Content-Type", "application/json")
		if int(atomic.AddInt32(&polls, 1)) <= pending {
			_ = json.NewEncoder(w).Encode(operation{Status: "running"})
			return
		}
		_ = json.NewEncoder(w).Encode(result)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &polls
}

func TestNew_RequiresEndpointAndKey(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"no endpoint", Config{APIKey: "k"}, "extraction.endpoint"},
		{"no key", Config{Endpoint: "http://localhost"}, "extraction.api_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			var cfgErr *domain.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	e, err := New(Config{Endpoint: "http://localhost/", APIKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost", e.endpoint)
	assert.Equal(t, DefaultModel, e.model)
	assert.Equal(t, DefaultPollInterval, e.pollInterval)
	assert.Equal(t, domain.ExtractionRemoteLayout, e.Strategy())
}

func TestExtract_Paragraphs(t *testing.T) {
	srv, polls := layoutServer(t, 2, operation{
		Status: "succeeded",
		AnalyzeResult: &analyzeResult{
			Content: "ignored when paragraphs exist",
			Paragraphs: []paragraph{
				{Role: "pageHeader", Content: "ACME Chemicals", BoundingRegions: []boundingRegion{{PageNumber: 1}}},
				{Role: "title", Content: "Sulfuric Acid", BoundingRegions: []boundingRegion{{PageNumber: 1}}},
				{Content: "Sulfuric acid is corrosive.", BoundingRegions: []boundingRegion{{PageNumber: 1}}},
				{Content: "It is used in batteries.", BoundingRegions: []boundingRegion{{PageNumber: 2}}},
				{Role: "pageNumber", Content: "2", BoundingRegions: []boundingRegion{{PageNumber: 2}}},
			},
		},
	})
	path := writePDF(t)

	doc, err := newTestExtractor(t, srv.URL).Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, int32(3), atomic.LoadInt32(polls))
	assert.Equal(t, "Sulfuric Acid\nSulfuric acid is corrosive.\nIt is used in batteries.", doc.Content)
	assert.Equal(t, "Sulfuric Acid", doc.Title)
	assert.Equal(t, path, doc.Path)
	assert.NotEmpty(t, doc.ID)
	require.Len(t, doc.Pages, 2)
	assert.Equal(t, 2, doc.Pages[1].Number)
	assert.Equal(t, "It is used in batteries.", doc.Pages[1].Text)
	assert.Len(t, doc.Layout, 5)
}

func TestExtract_FlatContent(t *testing.T) {
	srv, _ := layoutServer(t, 0, operation{
		Status:        "succeeded",
		AnalyzeResult: &analyzeResult{Content: "Sulfuric acid is corrosive."},
	})

	doc, err := newTestExtractor(t, srv.URL).Extract(context.Background(), writePDF(t))
	require.NoError(t, err)
	assert.Equal(t, "Sulfuric acid is corrosive.", doc.Content)
}

func TestExtract_AnalysisFailed(t *testing.T) {
	srv, _ := layoutServer(t, 0, operation{
		Status: "failed",
		Error:  &serviceError{Code: "InvalidContent", Message: "corrupt document"},
	})
	path := writePDF(t)

	_, err := newTestExtractor(t, srv.URL).Extract(context.Background(), path)

	var extractErr *domain.ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, path, extractErr.Path)
	assert.Contains(t, err.Error(), "corrupt document")
	assert.NotErrorIs(t, err, domain.ErrExtractionUnavailable)
}

func TestExtract_StatusErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		unavailable bool
	}{
		{"bad request", http.StatusBadRequest, false},
		{"unauthorized", http.StatusUnauthorized, false},
		{"throttled", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"error":{"code":"x"}}`, tt.status)
			}))
			defer srv.Close()

			_, err := newTestExtractor(t, srv.URL).Extract(context.Background(), writePDF(t))

			var extractErr *domain.ExtractionError
			require.True(t, errors.As(err, &extractErr))
			assert.Equal(t, tt.unavailable, errors.Is(err, domain.ErrExtractionUnavailable))
		})
	}
}

func TestExtract_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	_, err := newTestExtractor(t, endpoint).Extract(context.Background(), writePDF(t))
	assert.ErrorIs(t, err, domain.ErrExtractionUnavailable)
	assert.Equal(t, domain.ErrorKindServiceUnavailable, domain.Classify(err))
}

func TestExtract_MissingFile(t *testing.T) {
	e := newTestExtractor(t, "http://localhost")

	_, err := e.Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))

	var extractErr *domain.ExtractionError
	assert.True(t, errors.As(err, &extractErr))
}

func TestRetryAfter(t *testing.T) {
	h := http.Header{}
	assert.Equal(t, time.Second, retryAfter(h, time.Second))

	h.Set("Retry-After", "3")
	assert.Equal(t, 3*time.Second, retryAfter(h, time.Second))

	h.Set("Retry-After", "soon")
	assert.Equal(t, time.Second, retryAfter(h, time.Second))
}
