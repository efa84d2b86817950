package driven

// ConfigStore persists raw configuration values under dot-notation keys such
// as "chunking.size". Values are strings, ints, floats, bools or string
// lists; conversion into domain.Settings happens in the settings service.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// Set stores a configuration value and persists immediately.
	Set(key string, value any) error

	// SetMany stores several values and persists them in one write.
	SetMany(values map[string]any) error

	// Unset removes a key so its default applies again. Removing a missing
	// key is not an error.
	Unset(key string) error

	// Keys returns the stored keys, sorted.
	Keys() []string

	// Load re-reads configuration from storage, discarding unsaved state.
	Load() error

	// Path returns where the configuration is stored. Empty for stores
	// without a backing file.
	Path() string
}
