package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() Settings {
	s := DefaultSettings()
	s.Embedding.APIKey = "co-test"
	s.LLM.APIKey = "co-test"
	return s
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, 200, s.Chunking.Size)
	assert.Equal(t, 50, s.Chunking.Overlap)
	assert.Equal(t, SplitUnitWord, s.Chunking.Unit)
	assert.Equal(t, []string{"boilerplate", "whitespace"}, s.Cleaning.Processors)
	assert.True(t, s.Cleaning.DropPageNumbers)
	assert.Equal(t, ExtractionLocalParser, s.Extraction.Strategy)
	assert.Equal(t, 10, s.Retrieval.TopK)
	assert.Zero(t, s.Retrieval.MinSimilarity)
	assert.Equal(t, IndexPolicyRebuild, s.Index.Policy)
	assert.Equal(t, IndexBackendMemory, s.Index.Backend)
	assert.Equal(t, 1, s.Retry.MaxAttempts)
	assert.Equal(t, LabelTotal, s.Output.Label)
	assert.Equal(t, "embed-english-v3.0", s.Embedding.Model)
	assert.Equal(t, "command-r", s.LLM.Model)
}

func TestSettings_Validate_Defaults(t *testing.T) {
	s := validSettings()
	require.NoError(t, s.Validate())
}

func TestSettings_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		field  string
	}{
		{"overlap equals size", func(s *Settings) { s.Chunking.Overlap = s.Chunking.Size }, "chunking.overlap"},
		{"overlap exceeds size", func(s *Settings) { s.Chunking.Overlap = 500 }, "chunking.overlap"},
		{"negative overlap", func(s *Settings) { s.Chunking.Overlap = -1 }, "chunking.overlap"},
		{"zero size", func(s *Settings) { s.Chunking.Size = 0 }, "chunking.size"},
		{"unknown unit", func(s *Settings) { s.Chunking.Unit = "paragraph" }, "chunking.unit"},
		{"unknown strategy", func(s *Settings) { s.Extraction.Strategy = "ocr" }, "extraction.strategy"},
		{
			"remote layout without endpoint",
			func(s *Settings) { s.Extraction.Strategy = ExtractionRemoteLayout },
			"extraction.endpoint",
		},
		{
			"remote layout without key",
			func(s *Settings) {
				s.Extraction.Strategy = ExtractionRemoteLayout
				s.Extraction.Endpoint = "https://di.example.com"
			},
			"extraction.api_key",
		},
		{"anthropic embeddings", func(s *Settings) { s.Embedding.Provider = AIProviderAnthropic }, "embedding.provider"},
		{"missing embedding key", func(s *Settings) { s.Embedding.APIKey = "" }, "embedding"},
		{"zero batch", func(s *Settings) { s.Embedding.BatchSize = 0 }, "embedding.batch_size"},
		{"missing llm key", func(s *Settings) { s.LLM.APIKey = "" }, "llm"},
		{"unknown backend", func(s *Settings) { s.Index.Backend = "faiss" }, "index.backend"},
		{"unknown policy", func(s *Settings) { s.Index.Policy = "merge" }, "index.policy"},
		{"redis without url", func(s *Settings) { s.Index.Backend = IndexBackendRedis }, "index.url"},
		{"zero top_k", func(s *Settings) { s.Retrieval.TopK = 0 }, "retrieval.top_k"},
		{"floor out of range", func(s *Settings) { s.Retrieval.MinSimilarity = 1.5 }, "retrieval.min_similarity"},
		{"zero attempts", func(s *Settings) { s.Retry.MaxAttempts = 0 }, "retry.max_attempts"},
		{"inverted backoff", func(s *Settings) { s.Retry.MaxBackoff = time.Millisecond }, "retry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(&s)

			err := s.Validate()

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestSettings_Validate_OllamaNeedsNoKey(t *testing.T) {
	s := validSettings()
	s.Embedding = EmbeddingSettings{Provider: AIProviderOllama, Model: "nomic-embed-text", BatchSize: 32}
	s.LLM = LLMSettings{Provider: AIProviderOllama, Model: "llama3.2"}

	assert.NoError(t, s.Validate())
}

func TestAIProvider_IsValid(t *testing.T) {
	for _, p := range AllLLMProviders() {
		assert.True(t, p.IsValid(), p)
	}
	assert.False(t, AIProvider("").IsValid())
	assert.False(t, AIProvider("gemini").IsValid())
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.True(t, AIProviderCohere.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.False(t, AIProviderOpenAICompatible.RequiresAPIKey())
	assert.True(t, AIProviderOpenAICompatible.RequiresBaseURL())
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "Cohere (cloud)", AIProviderCohere.Description())
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestIndexBackend_IsDurable(t *testing.T) {
	assert.False(t, IndexBackendMemory.IsDurable())
	assert.True(t, IndexBackendSQLite.IsDurable())
	assert.True(t, IndexBackendRedis.IsDurable())
	assert.True(t, IndexBackendPostgres.IsDurable())
}

func TestIngestSettings_Accepts(t *testing.T) {
	s := IngestSettings{Extensions: []string{".pdf"}}

	assert.True(t, s.Accepts("/docs/msds.pdf"))
	assert.True(t, s.Accepts("/docs/MSDS.PDF"))
	assert.False(t, s.Accepts("/docs/notes.txt"))
	assert.True(t, IngestSettings{}.Accepts("/docs/notes.txt"))
}

func TestDefaultModels_CoverProviders(t *testing.T) {
	embed := DefaultEmbeddingModels()
	for _, p := range AllEmbeddingProviders() {
		assert.NotEmpty(t, embed[p], p)
	}
	llm := DefaultLLMModels()
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, llm[p], p)
	}
	assert.Equal(t, 1024, EmbeddingDimensions()["embed-english-v3.0"])
}
