// Package asr implements transcription.Provider against a generic ASR HTTP
// endpoint: one multipart POST in, one JSON document out.
package asr

import (
	"context"
	"fmt"
	"maps"
	"net/http"

	"github.com/kbukum/voicescribe/errors"
	"github.com/kbukum/voicescribe/httpclient"
	"github.com/kbukum/voicescribe/logger"
	"github.com/kbukum/voicescribe/transcription"
)

// ProviderName is the registered name of this provider.
const ProviderName = transcription.ProviderASR

func init() {
	transcription.RegisterFactory(ProviderName, func(providerCfg any, log *logger.Logger) (transcription.Provider, error) {
		cfg, ok := providerCfg.(*Config)
		if !ok {
			return nil, fmt.Errorf("asr: expected *asr.Config, got %T", providerCfg)
		}
		return NewProvider(*cfg, log)
	})
}

// Provider posts audio to an ASR endpoint.
type Provider struct {
	cfg    Config
	client *httpclient.Adapter
	log    *logger.Logger
}

// NewProvider creates a new ASR provider.
func NewProvider(cfg Config, log *logger.Logger, opts ...httpclient.Option) (*Provider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	hc := httpclient.Config{Name: ProviderName, Timeout: cfg.Timeout}
	if cfg.APIKey != "" {
		hc.Auth = httpclient.BearerAuth(cfg.APIKey)
	}
	client, err := httpclient.New(hc, opts...)
	if err != nil {
		return nil, err
	}
	return &Provider{cfg: cfg, client: client, log: log}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether an endpoint is configured.
func (p *Provider) IsAvailable(context.Context) bool { return p.cfg.URL != "" }

// Transcribe uploads the audio and extracts the transcript from the JSON reply.
//
// The HTTP status is not checked: an error status whose body is a JSON
// document without "text" still yields the placeholder. Transport failures and
// timeouts are returned as *httpclient.Error; a body that is not JSON is an
// AppError with code MALFORMED_RESPONSE.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	fields := maps.Clone(p.cfg.Fields)
	if req.Language != "" {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["language"] = req.Language
	}

	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   p.cfg.URL,
		Body: &httpclient.MultipartBody{
			Fields: fields,
			Files: []httpclient.FileField{{
				FieldName:   p.cfg.FieldName,
				FileName:    req.FileName,
				ContentType: req.ContentType,
				Data:        req.Audio,
			}},
		},
	})
	if err != nil && resp == nil {
		return nil, err
	}
	if err != nil {
		p.log.Warn("ASR service answered with an error status", logger.Fields(logger.FieldStatus, resp.StatusCode))
	}

	body := resp.Text()
	text, found, parseErr := transcription.ParseText(body)
	if parseErr != nil {
		return nil, errors.MalformedResponse(ProviderName, parseErr).WithDetail("status_code", resp.StatusCode)
	}
	return transcription.NewResponse(text, found, body), nil
}

var _ transcription.Provider = (*Provider)(nil)
