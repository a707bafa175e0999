package main

import (
	"fmt"

	"github.com/kbukum/voicescribe/config"
	"github.com/kbukum/voicescribe/observability"
	"github.com/kbukum/voicescribe/server"
	"github.com/kbukum/voicescribe/storage"
	"github.com/kbukum/voicescribe/telegram"
	"github.com/kbukum/voicescribe/transcription"
	"github.com/kbukum/voicescribe/transcription/asr"
	"github.com/kbukum/voicescribe/transcription/openai"
	"github.com/kbukum/voicescribe/validation"
	"github.com/kbukum/voicescribe/version"
	"github.com/kbukum/voicescribe/voice"
)

const serviceName = "voicescribe"

// AppConfig is the full service configuration.
//
// BOT_TOKEN and ASR_URL land in BotToken and ASRURL and are copied into the
// telegram and transcription sections by ApplyDefaults.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	BotToken string `yaml:"bot_token" mapstructure:"bot_token" json:"-"`
	ASRURL   string `yaml:"asr_url" mapstructure:"asr_url" json:"asr_url"`

	Telegram      telegram.Config      `yaml:"telegram" mapstructure:"telegram"`
	Transcription TranscriptionConfig  `yaml:"transcription" mapstructure:"transcription"`
	Storage       storage.Config       `yaml:"storage" mapstructure:"storage"`
	Pipeline      voice.Config         `yaml:"pipeline" mapstructure:"pipeline"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// TranscriptionConfig selects and configures the transcription backend.
type TranscriptionConfig struct {
	transcription.Config `yaml:",inline" mapstructure:",squash"`

	ASR    asr.Config    `yaml:"asr" mapstructure:"asr"`
	OpenAI openai.Config `yaml:"openai" mapstructure:"openai"`
}

// ProviderConfig returns the section for the selected backend, as expected
// by transcription.New.
func (c *TranscriptionConfig) ProviderConfig() any {
	switch c.Provider {
	case transcription.ProviderOpenAI:
		return &c.OpenAI
	default:
		return &c.ASR
	}
}

// ApplyDefaults fills in zero-valued fields and propagates the credentials.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().Short()
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}
	c.ServiceConfig.ApplyDefaults()

	if c.Telegram.Token == "" {
		c.Telegram.Token = c.BotToken
	}
	if c.Transcription.ASR.URL == "" {
		c.Transcription.ASR.URL = c.ASRURL
	}

	c.Telegram.ApplyDefaults()
	c.Transcription.ApplyDefaults()
	c.Transcription.ASR.ApplyDefaults()
	c.Transcription.OpenAI.ApplyDefaults()
	c.Storage.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section. Any error aborts startup.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}

	v := validation.New().
		Required("bot_token", c.Telegram.Token).
		OneOf("transcription.provider", c.Transcription.Provider, transcription.Registered())
	if c.Transcription.Provider == transcription.ProviderASR {
		v.Required("asr_url", c.Transcription.ASR.URL)
	}
	if err := v.Error(); err != nil {
		return err
	}

	validators := []func() error{
		c.Telegram.Validate,
		c.Storage.Validate,
		c.Server.Validate,
		c.Observability.Validate,
	}
	switch c.Transcription.Provider {
	case transcription.ProviderOpenAI:
		validators = append(validators, c.Transcription.OpenAI.Validate)
	default:
		validators = append(validators, c.Transcription.ASR.Validate)
	}
	for _, fn := range validators {
		if err := fn(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}
