package transcription

import (
	"fmt"
	"sort"

	"github.com/kbukum/voicescribe/logger"
)

// Provider names.
const (
	ProviderASR    = "asr"
	ProviderOpenAI = "openai"
)

// Config selects the transcription backend.
type Config struct {
	Provider string `mapstructure:"provider" json:"provider"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderASR
	}
}

// Factory creates a Provider from provider-specific configuration.
// Each backend type-asserts providerCfg to its own config type.
type Factory func(providerCfg any, log *logger.Logger) (Provider, error)

var factories = make(map[string]Factory)

// RegisterFactory registers a backend factory under name.
// Backend packages call this from an init function.
func RegisterFactory(name string, f Factory) {
	factories[name] = f
}

// Registered returns the names of all registered backends, sorted.
func Registered() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the Provider selected by cfg.Provider. The backend package must
// be imported so its factory is registered.
func New(cfg Config, providerCfg any, log *logger.Logger) (Provider, error) {
	cfg.ApplyDefaults()

	f, ok := factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("transcription: unsupported provider %q (registered: %v)", cfg.Provider, Registered())
	}

	l := log.WithComponent("transcription")
	l.Debug("initializing transcription provider", logger.Fields("provider", cfg.Provider))
	return f(providerCfg, l)
}
