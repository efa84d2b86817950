package http

import (
	"github.com/custodia-labs/sercha-kb/internal/app"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// RunRequest starts an ingest-and-answer run.
type RunRequest struct {
	Query   string `json:"query,omitempty"`
	Variant string `json:"variant,omitempty"`
}

// IngestRequest rebuilds or extends the index from the configured documents.
type IngestRequest struct {
	Variant string `json:"variant,omitempty"`
}

// AskRequest queries an existing index.
type AskRequest struct {
	Query   string `json:"query"`
	Variant string `json:"variant,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// SourceResponse is one retrieved passage.
type SourceResponse struct {
	Source   string  `json:"source"`
	Position int     `json:"position"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

// TimingsResponse reports phase durations in seconds.
type TimingsResponse struct {
	Ingestion float64 `json:"ingestion_seconds"`
	Retrieval float64 `json:"retrieval_seconds"`
	Total     float64 `json:"total_seconds"`
}

// AnswerResponse is a generated answer with its sources.
type AnswerResponse struct {
	Query   string           `json:"query"`
	Answer  string           `json:"answer"`
	Sources []SourceResponse `json:"sources"`
	Timings TimingsResponse  `json:"timings"`
}

// DocumentResponse is the outcome for one ingested file.
type DocumentResponse struct {
	Path   string `json:"path"`
	Stage  string `json:"stage"`
	Chunks int    `json:"chunks"`
	Error  string `json:"error,omitempty"`
}

// ReportResponse summarises an ingestion run.
type ReportResponse struct {
	Dir       string             `json:"dir"`
	Indexed   int                `json:"indexed"`
	Failed    int                `json:"failed"`
	Chunks    int                `json:"chunks"`
	Seconds   float64            `json:"seconds"`
	Documents []DocumentResponse `json:"documents"`
}

// RunResponse is the result of POST /v1/run.
type RunResponse struct {
	Variant      string         `json:"variant"`
	Answer       AnswerResponse `json:"answer"`
	Report       ReportResponse `json:"report"`
	ArtifactPath string         `json:"artifact_path"`
}

func variantName(v string) string {
	if v == "" {
		return app.DefaultVariant
	}
	return v
}

func toAnswerResponse(a *domain.Answer) AnswerResponse {
	resp := AnswerResponse{
		Query:   a.Query,
		Answer:  a.Text,
		Sources: make([]SourceResponse, 0, len(a.Hits)),
		Timings: TimingsResponse{
			Ingestion: a.Timings.Ingestion.Seconds(),
			Retrieval: a.Timings.Retrieval.Seconds(),
			Total:     a.Timings.Total.Seconds(),
		},
	}
	for _, h := range a.Hits {
		resp.Sources = append(resp.Sources, SourceResponse{
			Source:   h.Chunk.Source,
			Position: h.Chunk.Position,
			Score:    h.Score,
			Content:  h.Chunk.Content,
		})
	}
	return resp
}

func toReportResponse(r *domain.IngestReport) ReportResponse {
	resp := ReportResponse{
		Dir:       r.Dir,
		Indexed:   r.Indexed(),
		Chunks:    r.ChunksWritten,
		Seconds:   r.Duration.Seconds(),
		Documents: make([]DocumentResponse, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		doc := DocumentResponse{Path: o.Path, Stage: string(o.Stage), Chunks: o.Chunks}
		if o.Err != nil {
			doc.Error = o.Err.Error()
		}
		resp.Documents = append(resp.Documents, doc)
	}
	resp.Failed = len(r.Failures())
	return resp
}
