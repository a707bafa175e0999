package asr

import (
	"fmt"
	"time"

	"github.com/kbukum/voicescribe/validation"
)

const (
	// DefaultFieldName is the multipart field carrying the audio.
	DefaultFieldName = "audio_file"
	// DefaultTimeout caps a whole ASR request, upload included.
	DefaultTimeout = 600 * time.Second
)

// Config holds configuration for the ASR HTTP provider.
type Config struct {
	// URL is the ASR endpoint. Normally filled from ASR_URL.
	URL string `mapstructure:"url" json:"url"`
	// FieldName is the multipart field name for the audio.
	FieldName string `mapstructure:"field_name" json:"field_name"`
	// Timeout bounds the request.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
	// APIKey is sent as a bearer token when set.
	APIKey string `mapstructure:"api_key" json:"-"`
	// Fields are extra form fields sent with every request (e.g. language, task).
	Fields map[string]string `mapstructure:"fields" json:"fields,omitempty"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.FieldName == "" {
		c.FieldName = DefaultFieldName
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	v := validation.New().
		Required("asr_url", c.URL).
		Required("transcription.asr.field_name", c.FieldName).
		Check(c.Timeout > 0, "transcription.asr.timeout", "must be positive")
	if c.URL != "" {
		v.URL("asr_url", c.URL)
	}
	if err := v.Error(); err != nil {
		return fmt.Errorf("asr: %w", err)
	}
	return nil
}
