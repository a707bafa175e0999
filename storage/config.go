package storage

import "fmt"

// Provider constants for supported storage backends.
const (
	ProviderLocal  = "local"
	ProviderMemory = "memory"
)

// Default configuration values.
const (
	DefaultProvider = ProviderLocal
	DefaultBasePath = "downloads"
)

// Config holds storage configuration.
type Config struct {
	// Provider selects the storage backend.
	Provider string `mapstructure:"provider" json:"provider"`

	// BasePath is the working-file directory, relative to the working directory
	// unless absolute.
	BasePath string `mapstructure:"base_path" json:"base_path"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = DefaultProvider
	}
	if c.BasePath == "" {
		c.BasePath = DefaultBasePath
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal, ProviderMemory:
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
	if c.BasePath == "" {
		return fmt.Errorf("storage: base_path is required")
	}
	return nil
}
