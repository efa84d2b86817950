package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfigNotFound indicates no configuration file exists yet.
	ErrConfigNotFound = errors.New("config not found")

	// ErrUnsupportedFormat indicates a file the extractor cannot read.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrNoText indicates a document produced no text after cleaning.
	ErrNoText = errors.New("document contains no text")

	// ErrNoRelevantDocuments indicates retrieval found nothing to ground an answer.
	// Either the index is empty or no hit passed the relevance floor.
	ErrNoRelevantDocuments = errors.New("no relevant documents found")

	// ErrEmptyAnswer indicates the generative model returned no usable reply.
	ErrEmptyAnswer = errors.New("model returned an empty answer")

	// ErrLLMUnavailable indicates the LLM service is not configured or not reachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or not reachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrExtractionUnavailable indicates the remote extraction service is not configured.
	ErrExtractionUnavailable = errors.New("extraction service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index backend cannot be reached.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)

// ConfigError reports an invalid parameter or parameter combination.
// It is fatal at startup.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Reason
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// NewConfigError creates a ConfigError for field.
func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ExtractionError reports a file that could not be parsed.
// It is fatal for that file only.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// EmbeddingServiceError reports a network, status or quota failure from the
// embedding service. StatusCode is zero when no HTTP response was received.
type EmbeddingServiceError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *EmbeddingServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("embedding service: %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("embedding service: %s: %v", e.Op, e.Err)
}

func (e *EmbeddingServiceError) Unwrap() []error {
	return []error{ErrEmbeddingUnavailable, e.Err}
}

// Retryable reports whether a later attempt may succeed.
func (e *EmbeddingServiceError) Retryable() bool {
	return e.StatusCode == 0 ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError
}

// ContractViolation reports a broken internal invariant, such as mismatched
// chunk and embedding counts. It always indicates a programming error.
type ContractViolation struct {
	Reason string
}

func (e *ContractViolation) Error() string {
	return "contract violation: " + e.Reason
}

// NewContractViolation creates a ContractViolation.
func NewContractViolation(format string, args ...any) *ContractViolation {
	return &ContractViolation{Reason: fmt.Sprintf(format, args...)}
}

// RetrievalError reports a query that failed while embedding or searching.
type RetrievalError struct {
	Stage QueryStage
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed at %s: %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// GenerationError reports a query that failed while building the prompt,
// calling the model, or extracting its answer.
type GenerationError struct {
	Stage QueryStage
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ErrorKind is a coarse, user-facing error category.
type ErrorKind string

// Error kinds reported by the driving adapters.
const (
	ErrorKindConfig             ErrorKind = "config"
	ErrorKindNoRelevantDocs     ErrorKind = "no_relevant_documents"
	ErrorKindServiceUnavailable ErrorKind = "service_unavailable"
	ErrorKindExtraction         ErrorKind = "extraction"
	ErrorKindContractViolation  ErrorKind = "contract_violation"
	ErrorKindRetrieval          ErrorKind = "retrieval"
	ErrorKindGeneration         ErrorKind = "generation"
	ErrorKindInvalidInput       ErrorKind = "invalid_input"
	ErrorKindInternal           ErrorKind = "internal"
)

// Classify maps an error to its ErrorKind. "No relevant documents" and
// "service unavailable" are checked before the stage wrappers so callers
// can tell them apart.
func Classify(err error) ErrorKind {
	var (
		cfgErr      *ConfigError
		contractErr *ContractViolation
		extractErr  *ExtractionError
		retrieveErr *RetrievalError
		generateErr *GenerationError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return ErrorKindConfig
	case errors.As(err, &contractErr):
		return ErrorKindContractViolation
	case errors.Is(err, ErrNoRelevantDocuments):
		return ErrorKindNoRelevantDocs
	case IsServiceUnavailable(err):
		return ErrorKindServiceUnavailable
	case errors.Is(err, ErrInvalidInput):
		return ErrorKindInvalidInput
	case errors.As(err, &extractErr):
		return ErrorKindExtraction
	case errors.As(err, &retrieveErr):
		return ErrorKindRetrieval
	case errors.As(err, &generateErr):
		return ErrorKindGeneration
	default:
		return ErrorKindInternal
	}
}

// IsServiceUnavailable reports whether err was caused by an external
// service being unreachable or misconfigured.
func IsServiceUnavailable(err error) bool {
	return errors.Is(err, ErrEmbeddingUnavailable) ||
		errors.Is(err, ErrLLMUnavailable) ||
		errors.Is(err, ErrExtractionUnavailable) ||
		errors.Is(err, ErrVectorIndexUnavailable)
}
