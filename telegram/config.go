package telegram

import (
	"fmt"
	"time"

	"github.com/kbukum/voicescribe/validation"
)

// Default configuration values.
const (
	DefaultAPIURL      = "https://api.telegram.org"
	DefaultTimeout     = 60 * time.Second
	DefaultPollTimeout = 30 * time.Second
)

// Config configures the Bot API client and the update poller.
type Config struct {
	// Token is the bot credential. Normally filled from BOT_TOKEN.
	Token string `mapstructure:"token" json:"-"`
	// APIURL is the Bot API base; the file-serving base is APIURL + "/file".
	APIURL string `mapstructure:"api_url" json:"api_url"`
	// Timeout bounds each API request. It must exceed PollTimeout.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
	// DownloadTimeout bounds file downloads. 0 uses Timeout.
	DownloadTimeout time.Duration `mapstructure:"download_timeout" json:"download_timeout"`
	// PollTimeout is the long-poll duration passed to getUpdates.
	PollTimeout time.Duration `mapstructure:"poll_timeout" json:"poll_timeout"`
	// RateLimit caps outbound API calls per second. 0 disables it.
	RateLimit float64 `mapstructure:"rate_limit" json:"rate_limit"`
	// PollBackoff is the initial delay after a failed poll; it doubles up to MaxPollBackoff.
	PollBackoff    time.Duration `mapstructure:"poll_backoff" json:"poll_backoff"`
	MaxPollBackoff time.Duration `mapstructure:"max_poll_backoff" json:"max_poll_backoff"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = DefaultPollTimeout
	}
	if c.PollBackoff <= 0 {
		c.PollBackoff = time.Second
	}
	if c.MaxPollBackoff <= 0 {
		c.MaxPollBackoff = 30 * time.Second
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	v := validation.New().
		Required("bot_token", c.Token).
		URL("telegram.api_url", c.APIURL).
		Check(c.Timeout > c.PollTimeout, "telegram.timeout", "must exceed telegram.poll_timeout").
		Check(c.RateLimit >= 0, "telegram.rate_limit", "must not be negative")
	if err := v.Error(); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	return nil
}
