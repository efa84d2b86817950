// Package layout extracts text through a remote document layout analysis
// service speaking the Azure AI Document Intelligence REST protocol. It is
// the remote-layout-service extraction strategy.
//
// A file is submitted with a single POST; the service answers 202 with an
// Operation-Location header that is polled until the analysis succeeds or
// fails. Page furniture (headers, footers, page numbers) is dropped from the
// returned content.
package layout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
	"github.com/custodia-labs/sercha-kb/internal/normalisers"
)

const (
	// DefaultModel is the prebuilt layout model.
	DefaultModel = "prebuilt-layout"

	// DefaultAPIVersion is the REST API version requested.
	DefaultAPIVersion = "2024-11-30"

	// DefaultPollInterval is the wait between status polls when the
	// service sends no Retry-After header.
	DefaultPollInterval = time.Second

	// DefaultTimeout bounds a whole analysis, submission to result.
	DefaultTimeout = 2 * time.Minute

	// maxErrorBody caps how much of an error response is quoted.
	maxErrorBody = 512
)

// furnitureRoles are paragraph roles that carry no document content.
var furnitureRoles = map[string]bool{
	"pageHeader": true,
	"pageFooter": true,
	"pageNumber": true,
}

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Config holds layout service configuration.
type Config struct {
	Endpoint     string
	APIKey       string
	Model        string
	APIVersion   string
	PollInterval time.Duration
	Timeout      time.Duration
}

// Extractor sends documents to a layout analysis service.
type Extractor struct {
	endpoint     string
	apiKey       string
	model        string
	apiVersion   string
	pollInterval time.Duration
	timeout      time.Duration
	client       *http.Client
	now          func() time.Time
}

// New creates a layout extractor. Endpoint and APIKey are required.
func New(cfg Config) (*Extractor, error) {
	if cfg.Endpoint == "" {
		return nil, domain.NewConfigError("extraction.endpoint", "required for %s", domain.ExtractionRemoteLayout)
	}
	if cfg.APIKey == "" {
		return nil, domain.NewConfigError("extraction.api_key", "required for %s", domain.ExtractionRemoteLayout)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Extractor{
		endpoint:     strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		apiVersion:   cfg.APIVersion,
		pollInterval: cfg.PollInterval,
		timeout:      cfg.Timeout,
		client:       &http.Client{},
		now:          time.Now,
	}, nil
}

// NewFromSettings creates a layout extractor from extraction settings.
func NewFromSettings(s domain.ExtractionSettings) (*Extractor, error) {
	return New(Config{Endpoint: s.Endpoint, APIKey: s.APIKey, Model: s.Model})
}

// Strategy returns the extraction strategy this extractor implements.
func (e *Extractor) Strategy() domain.ExtractionStrategy {
	return domain.ExtractionRemoteLayout
}

// Extract uploads the file at path and returns the analysed text.
// An unreachable service wraps domain.ErrExtractionUnavailable.
func (e *Extractor) Extract(ctx context.Context, path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ExtractionError{Path: path, Err: err}
	}
	if len(data) == 0 {
		return nil, &domain.ExtractionError{Path: path, Err: errors.New("empty file")}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	opURL, err := e.submit(ctx, data)
	if err != nil {
		return nil, normalisers.Wrap(path, err)
	}
	logger.Debug("layout: %s submitted, polling %s", path, opURL)

	result, err := e.poll(ctx, opURL)
	if err != nil {
		return nil, normalisers.Wrap(path, err)
	}

	doc := buildDocument(result)
	doc.ID = normalisers.DocumentID(path)
	doc.Path = path
	doc.Title = titleFrom(result, doc.Content, path)
	doc.ExtractedAt = e.now()
	return doc, nil
}

func (e *Extractor) analyzeURL() string {
	return fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s",
		e.endpoint, url.PathEscape(e.model), url.QueryEscape(e.apiVersion))
}

// submit posts the document and returns the operation URL to poll.
func (e *Extractor) submit(ctx context.Context, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.analyzeURL(), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("layout: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	e.authorize(req)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: layout: %v", domain.ErrExtractionUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return "", statusError(resp)
	}

	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", errors.New("layout: response missing Operation-Location header")
	}
	return opURL, nil
}

// poll waits for the analysis behind opURL to finish.
func (e *Extractor) poll(ctx context.Context, opURL string) (*analyzeResult, error) {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
		if err != nil {
			return nil, fmt.Errorf("layout: failed to create request: %w", err)
		}
		e.authorize(req)

		resp, err := e.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("layout: analysis did not finish: %w", ctx.Err())
			}
			return nil, fmt.Errorf("%w: layout: %v", domain.ErrExtractionUnavailable, err)
		}

		if resp.StatusCode != http.StatusOK {
			err := statusError(resp)
			resp.Body.Close()
			return nil, err
		}

		var op operation
		err = json.NewDecoder(resp.Body).Decode(&op)
		wait := retryAfter(resp.Header, e.pollInterval)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("layout: failed to decode response: %w", err)
		}

		switch op.Status {
		case "succeeded":
			if op.AnalyzeResult == nil {
				return nil, errors.New("layout: succeeded without a result")
			}
			return op.AnalyzeResult, nil
		case "failed", "canceled":
			msg := op.Status
			if op.Error != nil {
				msg = fmt.Sprintf("%s: %s", op.Error.Code, op.Error.Message)
			}
			return nil, fmt.Errorf("layout: analysis failed: %s", msg)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("layout: analysis did not finish: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
}

func (e *Extractor) authorize(req *http.Request) {
	req.Header.Set("Ocp-Apim-Subscription-Key", e.apiKey)
}

// statusError turns a non-success response into an error. Server-side and
// throttling failures count as the service being unavailable.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	err := fmt.Errorf("layout: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %v", domain.ErrExtractionUnavailable, err)
	}
	return err
}

func retryAfter(h http.Header, fallback time.Duration) time.Duration {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

// buildDocument assembles content and per-page text from paragraphs,
// skipping page furniture. Results without paragraphs fall back to the
// flat content string.
func buildDocument(r *analyzeResult) *domain.Document {
	doc := &domain.Document{}
	if len(r.Paragraphs) == 0 {
		doc.Content = r.Content
		return doc
	}

	pageText := make(map[int][]string)
	var body []string
	for _, p := range r.Paragraphs {
		page := 0
		if len(p.BoundingRegions) > 0 {
			page = p.BoundingRegions[0].PageNumber
		}
		doc.Layout = append(doc.Layout, domain.LayoutRegion{Page: page, Role: p.Role, Text: p.Content})
		if furnitureRoles[p.Role] {
			continue
		}
		body = append(body, p.Content)
		pageText[page] = append(pageText[page], p.Content)
	}

	numbers := make([]int, 0, len(pageText))
	for n := range pageText {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	for _, n := range numbers {
		doc.Pages = append(doc.Pages, domain.Page{Number: n, Text: strings.Join(pageText[n], "\n")})
	}

	doc.Content = strings.Join(body, "\n")
	return doc
}

// titleFrom prefers a paragraph the service labelled as the title.
func titleFrom(r *analyzeResult, content, path string) string {
	for _, p := range r.Paragraphs {
		if p.Role == "title" && strings.TrimSpace(p.Content) != "" {
			return strings.TrimSpace(p.Content)
		}
	}
	return normalisers.Title(content, path)
}

type operation struct {
	Status        string         `json:"status"`
	AnalyzeResult *analyzeResult `json:"analyzeResult,omitempty"`
	Error         *serviceError  `json:"error,omitempty"`
}

type serviceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type analyzeResult struct {
	ModelID    string      `json:"modelId"`
	Content    string      `json:"content"`
	Paragraphs []paragraph `json:"paragraphs"`
}

type paragraph struct {
	Role            string           `json:"role,omitempty"`
	Content         string           `json:"content"`
	BoundingRegions []boundingRegion `json:"boundingRegions,omitempty"`
}

type boundingRegion struct {
	PageNumber int `json:"pageNumber"`
}
