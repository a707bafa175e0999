// Package openai implements transcription.Provider with OpenAI Whisper.
package openai

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kbukum/voicescribe/httpclient"
	"github.com/kbukum/voicescribe/logger"
	"github.com/kbukum/voicescribe/transcription"
	"github.com/kbukum/voicescribe/validation"
)

// ProviderName is the registered name of this provider.
const ProviderName = transcription.ProviderOpenAI

const defaultTimeout = 600 * time.Second

func init() {
	transcription.RegisterFactory(ProviderName, func(providerCfg any, log *logger.Logger) (transcription.Provider, error) {
		cfg, ok := providerCfg.(*Config)
		if !ok {
			return nil, fmt.Errorf("openai: expected *openai.Config, got %T", providerCfg)
		}
		return NewProvider(*cfg, log)
	})
}

// Config holds configuration for the OpenAI provider.
type Config struct {
	APIKey  string        `mapstructure:"api_key" json:"-"`
	Model   string        `mapstructure:"model" json:"model"`
	BaseURL string        `mapstructure:"base_url" json:"base_url,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`
}

// ApplyDefaults fills in zero-valued fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = goopenai.Whisper1
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	v := validation.New().Required("transcription.openai.api_key", c.APIKey)
	if c.BaseURL != "" {
		v.URL("transcription.openai.base_url", c.BaseURL)
	}
	return v.Error()
}

// Provider transcribes audio with the OpenAI audio API.
type Provider struct {
	cfg    Config
	client *goopenai.Client
	log    *logger.Logger
}

// NewProvider creates a new OpenAI provider.
func NewProvider(cfg Config, log *logger.Logger) (*Provider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	oc := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Provider{cfg: cfg, client: goopenai.NewClientWithConfig(oc), log: log}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether an API key is configured.
func (p *Provider) IsAvailable(context.Context) bool { return p.cfg.APIKey != "" }

// Transcribe sends the audio to the transcription endpoint.
// Timeouts are returned as *httpclient.Error so callers classify them the
// same way as the ASR provider's.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	resp, err := p.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    p.cfg.Model,
		FilePath: req.FileName,
		Reader:   bytes.NewReader(req.Audio),
		Language: req.Language,
		Format:   goopenai.AudioResponseFormatJSON,
	})
	if err != nil {
		return nil, classify(err)
	}
	return transcription.NewResponse(resp.Text, resp.Text != "", resp.Text), nil
}

func classify(err error) error {
	var ne net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &ne) && ne.Timeout()) {
		return httpclient.NewTimeoutError(err)
	}
	var apiErr *goopenai.APIError
	if stderrors.As(err, &apiErr) {
		if c := httpclient.ClassifyStatusCode(apiErr.HTTPStatusCode, nil); c != nil {
			c.Message = apiErr.Message
			c.Err = err
			return c
		}
	}
	return httpclient.NewConnectionError(err)
}

var _ transcription.Provider = (*Provider)(nil)
