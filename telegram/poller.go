package telegram

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/voicescribe/component"
	"github.com/kbukum/voicescribe/logger"
	"github.com/kbukum/voicescribe/resilience"
)

// Handler receives every inbound message. It must not block the poll loop.
type Handler func(ctx context.Context, msg *Message)

// UpdateSource is the part of Client the poller depends on.
type UpdateSource interface {
	GetMe(ctx context.Context) (*User, error)
	GetUpdates(ctx context.Context, offset int64) ([]Update, error)
}

// Poller long-polls getUpdates and hands each message to a Handler.
// Failed polls are retried with exponential backoff until Stop.
type Poller struct {
	source  UpdateSource
	handler Handler
	cfg     Config
	log     *logger.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	offset   int64
	bot      *User
	failures atomic.Int64
	lastErr  atomic.Value
}

// NewPoller creates a poller. cfg supplies the poll and backoff settings.
func NewPoller(source UpdateSource, handler Handler, cfg Config, log *logger.Logger) *Poller {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Poller{
		source:  source,
		handler: handler,
		cfg:     cfg,
		log:     log.WithComponent("telegram-poller"),
	}
}

var _ component.Component = (*Poller)(nil)

// Name returns the component name.
func (p *Poller) Name() string { return "telegram-poller" }

// Start verifies the credential with getMe and launches the poll loop.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return fmt.Errorf("telegram poller already started")
	}

	bot, err := p.source.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram: verify bot token: %w", err)
	}
	p.bot = bot
	p.log.Info("Telegram bot authorized", logger.Fields("username", bot.Username, "bot_id", bot.ID))

	runCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(runCtx)
	return nil
}

// Stop ends the poll loop and waits for it to exit or for ctx to be done.
// Messages already handed to the handler are not affected.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health reports degraded while polls are failing.
func (p *Poller) Health(_ context.Context) component.Health {
	h := component.Health{Name: p.Name(), Status: component.StatusHealthy}
	p.mu.Lock()
	started := p.done != nil
	p.mu.Unlock()
	if !started {
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
		return h
	}
	if n := p.failures.Load(); n > 0 {
		h.Status = component.StatusDegraded
		h.Message = fmt.Sprintf("%d consecutive poll failures", n)
		if err, ok := p.lastErr.Load().(error); ok {
			h.Message += ": " + err.Error()
		}
	}
	return h
}

// Describe returns infrastructure summary info for the bootstrap display.
func (p *Poller) Describe() component.Description {
	name := "Telegram"
	p.mu.Lock()
	if p.bot != nil && p.bot.Username != "" {
		name = "Telegram @" + p.bot.Username
	}
	p.mu.Unlock()
	return component.Description{
		Name:    name,
		Type:    "poller",
		Details: fmt.Sprintf("api=%s poll_timeout=%s", p.cfg.APIURL, p.cfg.PollTimeout),
	}
}

// Offset returns the next update ID the poller will ask for.
func (p *Poller) Offset() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.offset
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	retry := resilience.RetryConfig{
		MaxAttempts:    resilience.UnlimitedAttempts,
		InitialBackoff: p.cfg.PollBackoff,
		MaxBackoff:     p.cfg.MaxPollBackoff,
		BackoffFactor:  2,
		Jitter:         0.1,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			p.failures.Store(int64(attempt))
			p.lastErr.Store(err)
			p.log.Warn("getUpdates failed, backing off", logger.Fields(
				"attempt", attempt,
				"backoff", backoff.String(),
				logger.FieldError, err.Error(),
			))
		},
	}

	for {
		updates, err := resilience.Retry(ctx, retry, func() ([]Update, error) {
			return p.source.GetUpdates(ctx, p.Offset())
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		p.failures.Store(0)

		for i := range updates {
			u := &updates[i]
			p.mu.Lock()
			if u.UpdateID >= p.offset {
				p.offset = u.UpdateID + 1
			}
			p.mu.Unlock()
			if u.Message != nil {
				p.handler(ctx, u.Message)
			}
		}
	}
}
