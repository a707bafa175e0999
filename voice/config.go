package voice

import "time"

// Default pipeline settings.
const (
	DefaultMaxConcurrent = 16
	DefaultQueueWait     = 10 * time.Minute
)

// Config is the pipeline section of the application config.
type Config struct {
	// MaxConcurrent bounds simultaneous invocations. 0 selects the default,
	// a negative value removes the bound.
	MaxConcurrent int `mapstructure:"max_concurrent" json:"max_concurrent"`
	// QueueWait is how long a message waits for a free slot before it is
	// dropped. 0 selects the default, a negative value drops immediately.
	QueueWait time.Duration `mapstructure:"queue_wait" json:"queue_wait"`
	// CleanupOnFailure deletes the working file when a step after persist
	// fails. When false such files are left on disk.
	CleanupOnFailure bool `mapstructure:"cleanup_on_failure" json:"cleanup_on_failure"`
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.QueueWait == 0 {
		c.QueueWait = DefaultQueueWait
	}
}

// Bounded reports whether concurrency is limited.
func (c *Config) Bounded() bool {
	return c.MaxConcurrent > 0
}
