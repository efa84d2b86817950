package domain

import (
	"path/filepath"
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// SplitUnit is the unit the chunker measures size and overlap in.
type SplitUnit string

// Available split units.
const (
	SplitUnitWord      SplitUnit = "word"
	SplitUnitSentence  SplitUnit = "sentence"
	SplitUnitCharacter SplitUnit = "character"
)

// IsValid returns true if the split unit is recognised.
func (u SplitUnit) IsValid() bool {
	switch u {
	case SplitUnitWord, SplitUnitSentence, SplitUnitCharacter:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (u SplitUnit) String() string {
	return string(u)
}

// ExtractionStrategy selects how documents are turned into text.
// Strategies are alternatives, never a fallback chain.
type ExtractionStrategy string

// Available extraction strategies.
const (
	// ExtractionLocalParser parses PDFs in-process.
	ExtractionLocalParser ExtractionStrategy = "local-parser"

	// ExtractionRemoteLayout sends files to a layout analysis service.
	ExtractionRemoteLayout ExtractionStrategy = "remote-layout-service"
)

// IsValid returns true if the strategy is recognised.
func (s ExtractionStrategy) IsValid() bool {
	return s == ExtractionLocalParser || s == ExtractionRemoteLayout
}

// String returns the string representation.
func (s ExtractionStrategy) String() string {
	return string(s)
}

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderCohere is Cohere cloud API.
	AIProviderCohere AIProvider = "cohere"

	// AIProviderOpenAICompatible is any endpoint speaking the OpenAI API.
	AIProviderOpenAICompatible AIProvider = "openai_compatible"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic,
		AIProviderCohere, AIProviderOpenAICompatible:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderCohere
}

// RequiresBaseURL returns true if this provider has no default endpoint.
func (p AIProvider) RequiresBaseURL() bool {
	return p == AIProviderOpenAICompatible
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderCohere:
		return "Cohere (cloud)"
	case AIProviderOpenAICompatible:
		return "OpenAI-compatible endpoint"
	default:
		return unknownDescription
	}
}

// IndexBackend selects the vector index implementation.
type IndexBackend string

// Available index backends.
const (
	IndexBackendMemory   IndexBackend = "memory"
	IndexBackendSQLite   IndexBackend = "sqlite"
	IndexBackendRedis    IndexBackend = "redis"
	IndexBackendPostgres IndexBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	switch b {
	case IndexBackendMemory, IndexBackendSQLite, IndexBackendRedis, IndexBackendPostgres:
		return true
	default:
		return false
	}
}

// IsDurable returns true if entries outlive the process.
func (b IndexBackend) IsDurable() bool {
	return b != IndexBackendMemory
}

// String returns the string representation.
func (b IndexBackend) String() string {
	return string(b)
}

// IndexPolicy decides what re-ingestion does to existing entries.
type IndexPolicy string

// Available index policies.
const (
	// IndexPolicyRebuild clears the index before each ingestion run.
	IndexPolicyRebuild IndexPolicy = "rebuild"

	// IndexPolicyAppend adds entries on top of whatever is already indexed.
	IndexPolicyAppend IndexPolicy = "append"
)

// IsValid returns true if the policy is recognised.
func (p IndexPolicy) IsValid() bool {
	return p == IndexPolicyRebuild || p == IndexPolicyAppend
}

// String returns the string representation.
func (p IndexPolicy) String() string {
	return string(p)
}

// ChunkSettings configures the chunker.
type ChunkSettings struct {
	// Size is the chunk length budget in Unit.
	Size int

	// Overlap is how many trailing units repeat into the next chunk.
	Overlap int

	// Unit is the split unit.
	Unit SplitUnit
}

// CleaningSettings configures the text processors run before chunking.
type CleaningSettings struct {
	// Processors names the cleaners to run, in order.
	Processors []string

	// DropPageNumbers removes lines holding only a page marker.
	DropPageNumbers bool
}

// ExtractionSettings configures document extraction.
type ExtractionSettings struct {
	// Strategy selects the extractor.
	Strategy ExtractionStrategy

	// Endpoint is the layout service base URL.
	Endpoint string

	// APIKey is the layout service key.
	APIKey string

	// Model is the layout model identifier.
	Model string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama and compatible endpoints).
	BaseURL string

	// APIKey is the API key.
	APIKey string

	// BatchSize is the maximum number of texts per request.
	BatchSize int

	// RateLimit caps requests per second. Zero means unlimited.
	RateLimit float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	if e.Provider.RequiresBaseURL() && e.BaseURL == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama and compatible endpoints).
	BaseURL string

	// APIKey is the API key.
	APIKey string

	// MaxTokens caps the reply length. Zero uses the provider default.
	MaxTokens int

	// Temperature controls sampling.
	Temperature float64
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	if l.Provider.RequiresBaseURL() && l.BaseURL == "" {
		return false
	}
	return true
}

// IndexSettings configures the vector index.
type IndexSettings struct {
	// Backend selects the implementation.
	Backend IndexBackend

	// Policy decides between rebuilding and appending on re-ingestion.
	Policy IndexPolicy

	// Path is the sqlite data directory.
	Path string

	// URL is the redis or postgres connection string.
	URL string

	// Prefix namespaces keys (redis) or tables (postgres).
	Prefix string
}

// RetrievalSettings configures the query side.
type RetrievalSettings struct {
	// TopK is the number of chunks retrieved per query.
	TopK int

	// MinSimilarity drops hits scoring below it. Zero disables the floor.
	MinSimilarity float64
}

// RetrySettings configures bounded exponential backoff for service calls.
type RetrySettings struct {
	// MaxAttempts is the total number of attempts. One means no retry.
	MaxAttempts int

	// InitialBackoff is the wait before the second attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between attempts.
	MaxBackoff time.Duration
}

// IngestSettings configures directory listing.
type IngestSettings struct {
	// Extensions filters files by extension. Empty accepts every file.
	Extensions []string

	// Recursive descends into subdirectories.
	Recursive bool
}

// Accepts reports whether path passes the extension filter.
func (s IngestSettings) Accepts(path string) bool {
	if len(s.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range s.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// OutputSettings configures the result artifact.
type OutputSettings struct {
	// Path is the artifact file path.
	Path string

	// Label prefixes the elapsed time line.
	Label string
}

// Settings holds all application settings. It is built once at startup and
// passed to every constructor; no component reads the environment.
type Settings struct {
	// DocsDir is the directory ingested by default.
	DocsDir string

	Chunking   ChunkSettings
	Cleaning   CleaningSettings
	Extraction ExtractionSettings
	Embedding  EmbeddingSettings
	LLM        LLMSettings
	Index      IndexSettings
	Retrieval  RetrievalSettings
	Retry      RetrySettings
	Ingest     IngestSettings
	Output     OutputSettings

	// RequestTimeout bounds each embedding and generation call.
	RequestTimeout time.Duration
}

// Timing labels used in result artifacts and reports.
const (
	LabelIngestion = "Ingestion and Preprocessing Time"
	LabelRetrieval = "Retrieval Time"
	LabelTotal     = "Elapsed Time"
)

// DefaultSettings returns settings with sensible defaults.
// AI providers default to Cohere, matching the default prompt and batch size.
func DefaultSettings() Settings {
	return Settings{
		DocsDir: "docs",
		Chunking: ChunkSettings{
			Size:    200,
			Overlap: 50,
			Unit:    SplitUnitWord,
		},
		Cleaning: CleaningSettings{
			Processors:      []string{"boilerplate", "whitespace"},
			DropPageNumbers: true,
		},
		Extraction: ExtractionSettings{
			Strategy: ExtractionLocalParser,
			Model:    "prebuilt-layout",
		},
		Embedding: EmbeddingSettings{
			Provider:  AIProviderCohere,
			Model:     DefaultEmbeddingModels()[AIProviderCohere],
			BatchSize: 96,
		},
		LLM: LLMSettings{
			Provider:    AIProviderCohere,
			Model:       DefaultLLMModels()[AIProviderCohere],
			Temperature: 0.3,
		},
		Index: IndexSettings{
			Backend: IndexBackendMemory,
			Policy:  IndexPolicyRebuild,
			Prefix:  "sercha_kb",
		},
		Retrieval: RetrievalSettings{
			TopK: 10,
		},
		Retry: RetrySettings{
			MaxAttempts:    1,
			InitialBackoff: 200 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
		},
		Ingest: IngestSettings{
			Extensions: []string{".pdf"},
		},
		Output: OutputSettings{
			Path:  "result.txt",
			Label: LabelTotal,
		},
		RequestTimeout: 60 * time.Second,
	}
}

// Validate returns the first invalid setting as a *ConfigError.
func (s *Settings) Validate() error {
	if err := s.ValidateChunking(); err != nil {
		return err
	}
	if !s.Extraction.Strategy.IsValid() {
		return NewConfigError("extraction.strategy", "unknown strategy %q", s.Extraction.Strategy)
	}
	if s.Extraction.Strategy == ExtractionRemoteLayout {
		if s.Extraction.Endpoint == "" {
			return NewConfigError("extraction.endpoint", "required for %s", ExtractionRemoteLayout)
		}
		if s.Extraction.APIKey == "" {
			return NewConfigError("extraction.api_key", "required for %s", ExtractionRemoteLayout)
		}
	}
	if !s.Embedding.Provider.IsValid() || s.Embedding.Provider == AIProviderAnthropic {
		return NewConfigError("embedding.provider", "unsupported provider %q", s.Embedding.Provider)
	}
	if !s.Embedding.IsConfigured() {
		return NewConfigError("embedding", "%s requires credentials or base_url", s.Embedding.Provider)
	}
	if s.Embedding.BatchSize <= 0 {
		return NewConfigError("embedding.batch_size", "must be positive, got %d", s.Embedding.BatchSize)
	}
	if s.Embedding.RateLimit < 0 {
		return NewConfigError("embedding.rate_limit", "must not be negative")
	}
	if !s.LLM.Provider.IsValid() {
		return NewConfigError("llm.provider", "unsupported provider %q", s.LLM.Provider)
	}
	if !s.LLM.IsConfigured() {
		return NewConfigError("llm", "%s requires credentials or base_url", s.LLM.Provider)
	}
	if err := s.ValidateIndex(); err != nil {
		return err
	}
	if s.Retrieval.TopK <= 0 {
		return NewConfigError("retrieval.top_k", "must be positive, got %d", s.Retrieval.TopK)
	}
	if s.Retrieval.MinSimilarity < -1 || s.Retrieval.MinSimilarity > 1 {
		return NewConfigError("retrieval.min_similarity", "must be within [-1, 1]")
	}
	if s.Retry.MaxAttempts < 1 {
		return NewConfigError("retry.max_attempts", "must be at least 1")
	}
	if s.Retry.InitialBackoff < 0 || s.Retry.MaxBackoff < s.Retry.InitialBackoff {
		return NewConfigError("retry", "backoff must satisfy 0 <= initial_backoff <= max_backoff")
	}
	if s.RequestTimeout < 0 {
		return NewConfigError("request_timeout", "must not be negative")
	}
	return nil
}

// ValidateChunking checks the chunk size and overlap combination.
func (s *Settings) ValidateChunking() error {
	return s.Chunking.Validate()
}

// Validate checks the chunk size and overlap combination.
func (c ChunkSettings) Validate() error {
	if !c.Unit.IsValid() {
		return NewConfigError("chunking.unit", "unknown split unit %q", c.Unit)
	}
	if c.Size <= 0 {
		return NewConfigError("chunking.size", "must be positive, got %d", c.Size)
	}
	if c.Overlap < 0 {
		return NewConfigError("chunking.overlap", "must not be negative, got %d", c.Overlap)
	}
	if c.Overlap >= c.Size {
		return NewConfigError("chunking.overlap", "must be smaller than chunking.size (%d >= %d)",
			c.Overlap, c.Size)
	}
	return nil
}

// ValidateIndex checks the backend-specific index settings.
func (s *Settings) ValidateIndex() error {
	if !s.Index.Backend.IsValid() {
		return NewConfigError("index.backend", "unknown backend %q", s.Index.Backend)
	}
	if !s.Index.Policy.IsValid() {
		return NewConfigError("index.policy", "unknown policy %q", s.Index.Policy)
	}
	switch s.Index.Backend {
	case IndexBackendRedis, IndexBackendPostgres:
		if s.Index.URL == "" {
			return NewConfigError("index.url", "required for the %s backend", s.Index.Backend)
		}
	case IndexBackendMemory, IndexBackendSQLite:
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderCohere,
		AIProviderOpenAI,
		AIProviderOllama,
		AIProviderOpenAICompatible,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderCohere,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderOllama,
		AIProviderOpenAICompatible,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderCohere:           "embed-english-v3.0",
		AIProviderOllama:           "nomic-embed-text",
		AIProviderOpenAI:           "text-embedding-3-small",
		AIProviderOpenAICompatible: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderCohere:           "command-r",
		AIProviderOllama:           "llama3.2",
		AIProviderOpenAI:           "gpt-4o-mini",
		AIProviderAnthropic:        "claude-3-5-sonnet-latest",
		AIProviderOpenAICompatible: "gpt-4o-mini",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Cohere models
		"embed-english-v3.0":       1024,
		"embed-multilingual-v3.0":  1024,
		"embed-english-light-v3.0": 384,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
