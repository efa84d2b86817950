package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/app"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Health endpoints

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func (s *Server) handleVariants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"variants": app.Variants()})
}

// Pipeline endpoints

// handleRun ingests the configured documents and answers one query,
// writing the result artifact. An empty query asks app.DefaultQuery.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		req.Query = app.DefaultQuery
	}

	rt, ok := s.open(w, r, req.Variant)
	if !ok {
		return
	}
	defer closeRuntime(rt)

	result, err := rt.Runs.Run(r.Context(), "", req.Query)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RunResponse{
		Variant:      variantName(req.Variant),
		Answer:       toAnswerResponse(result.Answer),
		Report:       toReportResponse(result.Report),
		ArtifactPath: result.ArtifactPath,
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if !decode(w, r, &req) {
		return
	}

	rt, ok := s.open(w, r, req.Variant)
	if !ok {
		return
	}
	defer closeRuntime(rt)

	report, err := rt.Ingestion.Ingest(r.Context(), "")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, string(domain.ErrorKindInvalidInput), "query is required")
		return
	}

	rt, ok := s.open(w, r, req.Variant)
	if !ok {
		return
	}
	defer closeRuntime(rt)

	answer, err := rt.Answers.Answer(r.Context(), req.Query)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnswerResponse(answer))
}

func (s *Server) open(w http.ResponseWriter, r *http.Request, variant string) (*app.Runtime, bool) {
	rt, err := s.opener.Open(r.Context(), variant)
	if err != nil {
		writeDomainError(w, r, err)
		return nil, false
	}
	return rt, true
}

func closeRuntime(rt *app.Runtime) {
	if err := rt.Close(); err != nil {
		logger.Warn("closing pipelines: %v", err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, string(domain.ErrorKindInvalidInput), "invalid request body")
		return false
	}
	return true
}

// StatusFor maps a pipeline error to its HTTP status and error kind.
func StatusFor(err error) (int, domain.ErrorKind) {
	kind := domain.Classify(err)
	switch kind {
	case domain.ErrorKindConfig, domain.ErrorKindInvalidInput:
		return http.StatusBadRequest, kind
	case domain.ErrorKindNoRelevantDocs:
		return http.StatusNotFound, kind
	case domain.ErrorKindServiceUnavailable:
		return http.StatusServiceUnavailable, kind
	default:
		return http.StatusInternalServerError, kind
	}
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := StatusFor(err)
	logger.Warn("request %s failed (%s): %v", RequestIDFromContext(r.Context()), kind, err)
	writeError(w, status, string(kind), err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Kind: kind})
}
