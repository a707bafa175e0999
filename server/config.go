package server

import (
	"fmt"

	"github.com/kbukum/voicescribe/validation"
)

// Config holds HTTP server configuration.
type Config struct {
	// Enabled starts the ops server. It is off by default.
	Enabled      bool   `yaml:"enabled" mapstructure:"enabled"`
	Host         string `yaml:"host" mapstructure:"host"`
	Port         int    `yaml:"port" mapstructure:"port" validate:"min=0,max=65535"`
	ReadTimeout  int    `yaml:"read_timeout" mapstructure:"read_timeout"`   // seconds
	WriteTimeout int    `yaml:"write_timeout" mapstructure:"write_timeout"` // seconds
	IdleTimeout  int    `yaml:"idle_timeout" mapstructure:"idle_timeout"`   // seconds
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	return validation.New().
		Check(c.Port >= 0 && c.Port <= 65535, "server.port", fmt.Sprintf("must be between 0 and 65535 (got: %d)", c.Port)).
		Check(c.ReadTimeout >= 0, "server.read_timeout", "must be non-negative").
		Check(c.WriteTimeout >= 0, "server.write_timeout", "must be non-negative").
		Check(c.IdleTimeout >= 0, "server.idle_timeout", "must be non-negative").
		Error()
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
