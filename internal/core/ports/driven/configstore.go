package driven

// ConfigStore provides read access to user configuration.
// Implementations may reload values when the backing file changes.
type ConfigStore interface {
	// Get retrieves a raw value and whether it is set.
	Get(key string) (any, bool)

	// Keys lists all stored keys in dot notation.
	Keys() []string

	// GetString retrieves a string value, "" when unset.
	GetString(key string) string

	// GetInt retrieves an integer value, 0 when unset.
	GetInt(key string) int

	// GetFloat retrieves a float value, 0 when unset.
	GetFloat(key string) float64

	// GetBool retrieves a boolean value, false when unset.
	GetBool(key string) bool

	// GetStringSlice retrieves a string list value, nil when unset.
	GetStringSlice(key string) []string

	// Set stores a value and persists it.
	Set(key string, value any) error
}
