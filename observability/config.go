package observability

import (
	"time"

	"github.com/kbukum/voicescribe/validation"
)

// Config is the observability section of the application config.
type Config struct {
	// Enabled turns on OTLP export. When false the global no-op providers stay in place.
	Enabled bool `mapstructure:"enabled" json:"enabled"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g. "localhost:4318").
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	// Insecure disables TLS towards the collector.
	Insecure bool `mapstructure:"insecure" json:"insecure"`
	// SampleRate is the trace sampling ratio (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate" json:"sample_rate" validate:"min=0,max=1"`
	// Interval is the metric export interval.
	Interval time.Duration `mapstructure:"interval" json:"interval"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.Interval <= 0 {
		c.Interval = 15 * time.Second
	}
}

// Validate checks the configuration when export is enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.New().
		Required("observability.endpoint", c.Endpoint).
		Check(c.SampleRate >= 0 && c.SampleRate <= 1, "observability.sample_rate", "must be between 0 and 1").
		Error()
}
