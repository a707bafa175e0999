package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/kbukum/voicescribe/httpclient"
	"github.com/kbukum/voicescribe/logger"
	"github.com/kbukum/voicescribe/resilience"
)

// Client is a minimal Bot API client. The token is part of every request URL
// and is never included in errors or log records.
type Client struct {
	cfg      Config
	api      *httpclient.Adapter
	download *httpclient.Adapter
	log      *logger.Logger
}

// NewClient builds a client from cfg. Options are applied to both the API and
// the download adapters.
func NewClient(cfg Config, log *logger.Logger, opts ...httpclient.Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	apiCfg := httpclient.Config{
		Name:    "telegram",
		BaseURL: strings.TrimRight(cfg.APIURL, "/") + "/bot" + cfg.Token,
		Timeout: cfg.Timeout,
	}
	if cfg.RateLimit > 0 {
		apiCfg.RateLimiter = &resilience.RateLimiterConfig{Name: "telegram", Rate: cfg.RateLimit}
	}
	api, err := httpclient.New(apiCfg, opts...)
	if err != nil {
		return nil, err
	}

	dlTimeout := cfg.DownloadTimeout
	if dlTimeout <= 0 {
		dlTimeout = cfg.Timeout
	}
	download, err := httpclient.New(httpclient.Config{Name: "telegram-file", Timeout: dlTimeout}, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg:      cfg,
		api:      api,
		download: download,
		log:      log.WithComponent("telegram"),
	}, nil
}

// call posts payload to a Bot API method and unwraps the envelope.
func call[T any](ctx context.Context, c *Client, method string, payload any) (T, error) {
	var zero T
	resp, err := httpclient.Post[envelope[T]](c.api, ctx, method, payload)
	if resp != nil && !resp.Data.OK {
		apiErr := &APIError{
			Method:      method,
			Code:        resp.Data.ErrorCode,
			Description: resp.Data.Description,
			Err:         err,
		}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode
		}
		if resp.Data.Parameters != nil {
			apiErr.RetryAfter = resp.Data.Parameters.RetryAfter
		}
		return zero, apiErr
	}
	if err != nil {
		return zero, fmt.Errorf("telegram: %s: %w", method, err)
	}
	return resp.Data.Result, nil
}

// GetMe returns the bot's own user record; it doubles as a credential check.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	u, err := call[User](ctx, c, "getMe", struct{}{})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// GetUpdates long-polls for updates with an ID of at least offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	return call[[]Update](ctx, c, "getUpdates", getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(c.cfg.PollTimeout.Seconds()),
		AllowedUpdates: []string{"message"},
	})
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// SendMessage sends plain text to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) (*Message, error) {
	m, err := call[Message](ctx, c, "sendMessage", sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return nil, err
	}
	c.log.Debug("message sent", logger.Fields(logger.FieldChatID, chatID, "message_id", m.MessageID))
	return &m, nil
}

// SendText sends text and discards the resulting message.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := c.SendMessage(ctx, chatID, text)
	return err
}

type getFileRequest struct {
	FileID string `json:"file_id"`
}

// GetFile resolves a file ID into a downloadable file record.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	f, err := call[File](ctx, c, "getFile", getFileRequest{FileID: fileID})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FilePath returns the server-relative path of a file. A record without a
// path is an error.
func (c *Client) FilePath(ctx context.Context, fileID string) (string, error) {
	f, err := c.GetFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	if f.FilePath == "" {
		return "", fmt.Errorf("telegram: getFile: no file_path for %s", f.FileUniqueID)
	}
	return f.FilePath, nil
}

// FileURL builds the download URL for a server-relative file path.
func (c *Client) FileURL(path string) string {
	return strings.TrimRight(c.cfg.APIURL, "/") + "/file/bot" + c.cfg.Token + "/" + strings.TrimLeft(path, "/")
}

// Download fetches url with a plain GET and returns the whole body.
// Any non-2xx status is an error.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.download.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: url})
	if err != nil {
		return nil, fmt.Errorf("telegram: download: %w", err)
	}
	return resp.Body, nil
}

// APIURL returns the configured Bot API base without credentials.
func (c *Client) APIURL() string {
	return c.cfg.APIURL
}

// Close releases idle connections.
func (c *Client) Close(ctx context.Context) error {
	_ = c.download.Close(ctx)
	return c.api.Close(ctx)
}
