package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-kb/internal/app"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query   string `json:"query" jsonschema:"the question to answer from the indexed documents"`
	Variant string `json:"variant,omitempty" jsonschema:"chunking variant: default, word, sentence or character"`
}

// RunInput is the input schema for the run tool.
type RunInput struct {
	Query   string `json:"query,omitempty" jsonschema:"the question to answer after ingesting (defaults to the sample query)"`
	Variant string `json:"variant,omitempty" jsonschema:"chunking variant: default, word, sentence or character"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Variant string `json:"variant,omitempty" jsonschema:"chunking variant: default, word, sentence or character"`
}

// SourceOutput is one retrieved passage.
type SourceOutput struct {
	Source   string  `json:"source"`
	Position int     `json:"position"`
	Score    float64 `json:"score"`
	Content  string  `json:"content,omitempty"`
}

// AnswerOutput is the output schema for the ask tool.
type AnswerOutput struct {
	Query            string         `json:"query"`
	Answer           string         `json:"answer"`
	Sources          []SourceOutput `json:"sources"`
	RetrievalSeconds float64        `json:"retrieval_seconds"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	Dir      string   `json:"dir"`
	Indexed  int      `json:"indexed"`
	Chunks   int      `json:"chunks"`
	Seconds  float64  `json:"seconds"`
	Failures []string `json:"failures,omitempty"`
}

// RunOutput is the output schema for the run tool.
type RunOutput struct {
	Answer           AnswerOutput `json:"answer"`
	Report           IngestOutput `json:"report"`
	IngestionSeconds float64      `json:"ingestion_seconds"`
	TotalSeconds     float64      `json:"total_seconds"`
	ArtifactPath     string       `json:"artifact_path"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the documents already in the index",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Extract, chunk and embed the configured documents into the index",
	}, s.handleIngest)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "run",
		Description: "Ingest the configured documents, answer one question and save the timed result",
	}, s.handleRun)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, AnswerOutput{}, toolError(fmt.Errorf("%w: query is empty", domain.ErrInvalidInput))
	}

	rt, err := s.ports.Pipelines.Open(ctx, input.Variant)
	if err != nil {
		return nil, AnswerOutput{}, toolError(err)
	}
	defer closeRuntime(rt)

	answer, err := rt.Answers.Answer(ctx, input.Query)
	if err != nil {
		return nil, AnswerOutput{}, toolError(err)
	}
	return nil, toAnswerOutput(answer), nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	rt, err := s.ports.Pipelines.Open(ctx, input.Variant)
	if err != nil {
		return nil, IngestOutput{}, toolError(err)
	}
	defer closeRuntime(rt)

	report, err := rt.Ingestion.Ingest(ctx, "")
	if err != nil {
		return nil, IngestOutput{}, toolError(err)
	}
	return nil, toIngestOutput(report), nil
}

// handleRun handles the run tool invocation.
func (s *Server) handleRun(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunInput,
) (*mcp.CallToolResult, RunOutput, error) {
	query := input.Query
	if strings.TrimSpace(query) == "" {
		query = app.DefaultQuery
	}

	rt, err := s.ports.Pipelines.Open(ctx, input.Variant)
	if err != nil {
		return nil, RunOutput{}, toolError(err)
	}
	defer closeRuntime(rt)

	result, err := rt.Runs.Run(ctx, "", query)
	if err != nil {
		return nil, RunOutput{}, toolError(err)
	}

	return nil, RunOutput{
		Answer:           toAnswerOutput(result.Answer),
		Report:           toIngestOutput(result.Report),
		IngestionSeconds: result.Answer.Timings.Ingestion.Seconds(),
		TotalSeconds:     result.Answer.Timings.Total.Seconds(),
		ArtifactPath:     result.ArtifactPath,
	}, nil
}

// toolError prefixes err with its failure category so clients can branch
// on it without parsing the message.
func toolError(err error) error {
	return fmt.Errorf("%s: %w", domain.Classify(err), err)
}

func closeRuntime(rt *app.Runtime) {
	if err := rt.Close(); err != nil {
		logger.Warn("mcp: closing pipelines: %v", err)
	}
}

func toAnswerOutput(a *domain.Answer) AnswerOutput {
	out := AnswerOutput{
		Query:            a.Query,
		Answer:           a.Text,
		Sources:          make([]SourceOutput, len(a.Hits)),
		RetrievalSeconds: a.Timings.Retrieval.Seconds(),
	}
	for i, h := range a.Hits {
		out.Sources[i] = SourceOutput{
			Source:   h.Chunk.Source,
			Position: h.Chunk.Position,
			Score:    h.Score,
			Content:  h.Chunk.Content,
		}
	}
	return out
}

func toIngestOutput(r *domain.IngestReport) IngestOutput {
	out := IngestOutput{
		Dir:     r.Dir,
		Indexed: r.Indexed(),
		Chunks:  r.ChunksWritten,
		Seconds: r.Duration.Seconds(),
	}
	for _, o := range r.Failures() {
		out.Failures = append(out.Failures, fmt.Sprintf("%s: %v", o.Path, o.Err))
	}
	return out
}
