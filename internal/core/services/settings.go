package services

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// EnvPrefix prefixes environment overrides, e.g. SERCHA_KB_CHUNKING_SIZE.
const EnvPrefix = "SERCHA_KB_"

// defaultLocalBaseURL is where local providers listen unless configured.
const defaultLocalBaseURL = "http://localhost:11434"

// settingFields maps every config key to the settings field it controls.
// Fields are returned as pointers to string, int, float64, bool,
// time.Duration or []string.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
var settingFields = map[string]func(s *domain.Settings) any{
	"docs_dir":                   func(s *domain.Settings) any { return &s.DocsDir },
	"chunking.size":              func(s *domain.Settings) any { return &s.Chunking.Size },
	"chunking.overlap":           func(s *domain.Settings) any { return &s.Chunking.Overlap },
	"chunking.unit":              func(s *domain.Settings) any { return (*string)(&s.Chunking.Unit) },
	"cleaning.processors":        func(s *domain.Settings) any { return &s.Cleaning.Processors },
	"cleaning.drop_page_numbers": func(s *domain.Settings) any { return &s.Cleaning.DropPageNumbers },
	"extraction.strategy":        func(s *domain.Settings) any { return (*string)(&s.Extraction.Strategy) },
	"extraction.endpoint":        func(s *domain.Settings) any { return &s.Extraction.Endpoint },
	"extraction.api_key":         func(s *domain.Settings) any { return &s.Extraction.APIKey },
	"extraction.model":           func(s *domain.Settings) any { return &s.Extraction.Model },
	"embedding.provider":         func(s *domain.Settings) any { return (*string)(&s.Embedding.Provider) },
	"embedding.model":            func(s *domain.Settings) any { return &s.Embedding.Model },
	"embedding.base_url":         func(s *domain.Settings) any { return &s.Embedding.BaseURL },
	"embedding.api_key":          func(s *domain.Settings) any { return &s.Embedding.APIKey },
	"embedding.batch_size":       func(s *domain.Settings) any { return &s.Embedding.BatchSize },
	"embedding.rate_limit":       func(s *domain.Settings) any { return &s.Embedding.RateLimit },
	"llm.provider":               func(s *domain.Settings) any { return (*string)(&s.LLM.Provider) },
	"llm.model":                  func(s *domain.Settings) any { return &s.LLM.Model },
	"llm.base_url":               func(s *domain.Settings) any { return &s.LLM.BaseURL },
	"llm.api_key":                func(s *domain.Settings) any { return &s.LLM.APIKey },
	"llm.max_tokens":             func(s *domain.Settings) any { return &s.LLM.MaxTokens },
	"llm.temperature":            func(s *domain.Settings) any { return &s.LLM.Temperature },
	"index.backend":              func(s *domain.Settings) any { return (*string)(&s.Index.Backend) },
	"index.policy":               func(s *domain.Settings) any { return (*string)(&s.Index.Policy) },
	"index.path":                 func(s *domain.Settings) any { return &s.Index.Path },
	"index.url":                  func(s *domain.Settings) any { return &s.Index.URL },
	"index.prefix":               func(s *domain.Settings) any { return &s.Index.Prefix },
	"retrieval.top_k":            func(s *domain.Settings) any { return &s.Retrieval.TopK },
	"retrieval.min_similarity":   func(s *domain.Settings) any { return &s.Retrieval.MinSimilarity },
	"retry.max_attempts":         func(s *domain.Settings) any { return &s.Retry.MaxAttempts },
	"retry.initial_backoff":      func(s *domain.Settings) any { return &s.Retry.InitialBackoff },
	"retry.max_backoff":          func(s *domain.Settings) any { return &s.Retry.MaxBackoff },
	"request_timeout":            func(s *domain.Settings) any { return &s.RequestTimeout },
	"ingest.extensions":          func(s *domain.Settings) any { return &s.Ingest.Extensions },
	"ingest.recursive":           func(s *domain.Settings) any { return &s.Ingest.Recursive },
	"output.path":                func(s *domain.Settings) any { return &s.Output.Path },
	"output.label":               func(s *domain.Settings) any { return &s.Output.Label },
}

// providerKeyEnv names the vendor variable holding each provider's API key.
var providerKeyEnv = map[domain.AIProvider]string{
	domain.AIProviderCohere:    "COHERE_API_KEY",
	domain.AIProviderOpenAI:    "OPENAI_API_KEY",
	domain.AIProviderAnthropic: "ANTHROPIC_API_KEY",
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings. Stored values override the
// defaults; values of the wrong type are ignored.
func (s *SettingsService) Get() (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	for key, field := range settingFields {
		raw, ok := s.configStore.Get(key)
		if !ok {
			continue
		}
		assignStored(field(&settings), raw)
	}

	return &settings, nil
}

// Save persists application settings in a single store write.
func (s *SettingsService) Save(settings *domain.Settings) error {
	values := make(map[string]any, len(settingFields))
	for key, field := range settingFields {
		values[key] = storable(field(settings))
	}
	if err := s.configStore.SetMany(values); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Set stores one setting, parsing value into the key's type.
// List values are comma separated.
func (s *SettingsService) Set(key, value string) error {
	field, ok := settingFields[key]
	if !ok {
		return domain.NewConfigError(key, "unknown setting")
	}

	var scratch domain.Settings
	ptr := field(&scratch)
	if err := parseInto(ptr, value); err != nil {
		return domain.NewConfigError(key, "%v", err)
	}
	if err := checkEnum(key, &scratch); err != nil {
		return err
	}

	if err := s.configStore.Set(key, storable(ptr)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Unset removes a stored setting so its default applies again.
func (s *SettingsService) Unset(key string) error {
	if _, ok := settingFields[key]; !ok {
		return domain.NewConfigError(key, "unknown setting")
	}
	if err := s.configStore.Unset(key); err != nil {
		return fmt.Errorf("failed to unset %s: %w", key, err)
	}
	return nil
}

// checkEnum rejects values outside a key's fixed vocabulary.
func checkEnum(key string, s *domain.Settings) error {
	var valid bool
	switch key {
	case "chunking.unit":
		valid = s.Chunking.Unit.IsValid()
	case "extraction.strategy":
		valid = s.Extraction.Strategy.IsValid()
	case "embedding.provider":
		valid = slices.Contains(domain.AllEmbeddingProviders(), s.Embedding.Provider)
	case "llm.provider":
		valid = s.LLM.Provider.IsValid()
	case "index.backend":
		valid = s.Index.Backend.IsValid()
	case "index.policy":
		valid = s.Index.Policy.IsValid()
	default:
		return nil
	}
	if !valid {
		return domain.NewConfigError(key, "unsupported value")
	}
	return nil
}

// Keys returns every recognised config key, sorted.
func (s *SettingsService) Keys() []string {
	return SettingKeys()
}

// SettingKeys returns every recognised config key, sorted.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingFields))
	for key := range settingFields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return domain.NewConfigError("embedding.provider", "invalid provider %q", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return domain.NewConfigError("embedding.provider", "%s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return domain.NewConfigError("embedding.api_key", "API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = pickModel(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = pickBaseURL(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return domain.NewConfigError("llm.provider", "invalid provider %q", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return domain.NewConfigError("llm.api_key", "API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = pickModel(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = pickBaseURL(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks that current settings form a valid configuration.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return settings.Validate()
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// ApplyEnv overrides settings from environment variables. Each key maps to
// EnvPrefix plus the upper-cased key with dots replaced by underscores.
// Vendor variables such as COHERE_API_KEY or AZURE_DI_KEY fill credentials
// that are still empty afterwards. lookup is usually os.LookupEnv.
func ApplyEnv(settings *domain.Settings, lookup func(string) (string, bool)) error {
	for _, key := range SettingKeys() {
		value, ok := lookup(EnvName(key))
		if !ok {
			continue
		}
		if err := parseInto(settingFields[key](settings), value); err != nil {
			return domain.NewConfigError(key, "%s: %v", EnvName(key), err)
		}
	}

	fill := func(dst *string, name string) {
		if *dst != "" || name == "" {
			return
		}
		if v, ok := lookup(name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	fill(&settings.Embedding.APIKey, providerKeyEnv[settings.Embedding.Provider])
	fill(&settings.LLM.APIKey, providerKeyEnv[settings.LLM.Provider])
	fill(&settings.Extraction.Endpoint, "AZURE_DI_ENDPOINT")
	fill(&settings.Extraction.APIKey, "AZURE_DI_KEY")
	return nil
}

// EnvName returns the environment variable overriding key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func pickModel(model, fallback string) string {
	if model != "" {
		return model
	}
	return fallback
}

func pickBaseURL(provider domain.AIProvider, current string) string {
	switch {
	case provider.IsLocal():
		if current == "" {
			return defaultLocalBaseURL
		}
		return current
	case provider.RequiresBaseURL():
		return current
	default:
		// Cloud providers don't need a custom base URL
		return ""
	}
}

// parseInto parses a user-supplied string into the field behind ptr.
func parseInto(ptr any, value string) error {
	value = strings.TrimSpace(value)
	switch p := ptr.(type) {
	case *string:
		*p = value
	case *int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("expected an integer, got %q", value)
		}
		*p = n
	case *float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("expected a number, got %q", value)
		}
		*p = f
	case *bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("expected true or false, got %q", value)
		}
		*p = b
	case *time.Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("expected a duration such as 500ms or 1m, got %q", value)
		}
		*p = d
	case *[]string:
		*p = splitList(value)
	default:
		return fmt.Errorf("unsupported setting type %T", ptr)
	}
	return nil
}

// assignStored copies a value read from the config store into ptr.
// Values of the wrong type leave the field untouched.
func assignStored(ptr, raw any) {
	switch p := ptr.(type) {
	case *string:
		if v, ok := raw.(string); ok {
			*p = v
		}
	case *int:
		switch v := raw.(type) {
		case int:
			*p = v
		case int64:
			*p = int(v)
		}
	case *float64:
		switch v := raw.(type) {
		case float64:
			*p = v
		case int64:
			*p = float64(v)
		case int:
			*p = float64(v)
		}
	case *bool:
		if v, ok := raw.(bool); ok {
			*p = v
		}
	case *time.Duration:
		if v, ok := raw.(string); ok {
			if d, err := time.ParseDuration(v); err == nil {
				*p = d
			}
		}
	case *[]string:
		switch v := raw.(type) {
		case []string:
			*p = slices.Clone(v)
		case []any:
			list := make([]string, 0, len(v))
			for _, item := range v {
				if str, ok := item.(string); ok {
					list = append(list, str)
				}
			}
			*p = list
		case string:
			*p = splitList(v)
		}
	}
}

// storable converts the field behind ptr into a config store value.
func storable(ptr any) any {
	switch p := ptr.(type) {
	case *string:
		return *p
	case *int:
		return *p
	case *float64:
		return *p
	case *bool:
		return *p
	case *time.Duration:
		return p.String()
	case *[]string:
		return slices.Clone(*p)
	default:
		return nil
	}
}

func splitList(value string) []string {
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
