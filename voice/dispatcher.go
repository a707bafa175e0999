package voice

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kbukum/voicescribe/component"
	"github.com/kbukum/voicescribe/logger"
	"github.com/kbukum/voicescribe/observability"
	"github.com/kbukum/voicescribe/resilience"
)

// Dispatcher runs one pipeline invocation per message, each in its own
// goroutine. Invocations never share state and are not cancelled on shutdown.
type Dispatcher struct {
	handler  Handler
	cfg      Config
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	log      *logger.Logger

	wg       sync.WaitGroup
	inFlight atomic.Int64
	dropped  atomic.Int64
	details  string
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithMetrics records dropped messages on m.
func WithMetrics(m *observability.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithDescription sets the startup summary details line.
func WithDescription(details string) DispatcherOption {
	return func(d *Dispatcher) { d.details = details }
}

// NewDispatcher creates a dispatcher for h.
func NewDispatcher(h Handler, cfg Config, log *logger.Logger, opts ...DispatcherOption) *Dispatcher {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	d := &Dispatcher{
		handler: h,
		cfg:     cfg,
		log:     log.WithComponent("dispatcher"),
	}
	if cfg.Bounded() {
		wait := cfg.QueueWait
		if wait < 0 {
			wait = 0
		}
		d.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "voice-pipeline",
			MaxConcurrent: cfg.MaxConcurrent,
			MaxWait:       wait,
		})
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch starts an invocation for msg and returns immediately. The
// invocation keeps ctx's values but ignores its cancellation.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	if msg.Voice == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if d.bulkhead == nil {
			d.invoke(ctx, msg)
			return
		}
		err := d.bulkhead.Execute(ctx, func() error {
			d.invoke(ctx, msg)
			return nil
		})
		if err != nil {
			d.drop(ctx, msg, err)
		}
	}()
}

func (d *Dispatcher) invoke(ctx context.Context, msg Message) {
	d.inFlight.Add(1)
	defer d.inFlight.Add(-1)
	// Step errors are logged by the handler.
	_, _ = d.handler.Handle(ctx, msg)
}

func (d *Dispatcher) drop(ctx context.Context, msg Message, err error) {
	d.dropped.Add(1)
	reason := "rejected"
	switch {
	case stderrors.Is(err, resilience.ErrBulkheadFull):
		reason = "full"
	case stderrors.Is(err, resilience.ErrBulkheadTimeout):
		reason = "queue_timeout"
	}
	d.metrics.RecordDropped(ctx, reason)
	d.log.Error("voice message dropped", logger.Fields(
		logger.FieldChatID, msg.ChatID,
		logger.FieldFileUniqueID, msg.Voice.UniqueID,
		"reason", reason,
		logger.FieldError, err.Error(),
	))
}

// Wait blocks until every dispatched invocation has returned or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InFlight returns the number of invocations currently running.
func (d *Dispatcher) InFlight() int {
	return int(d.inFlight.Load())
}

// Dropped returns the number of messages dropped for lack of a slot.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// cleanupWaiter is implemented by handlers with background work to drain.
type cleanupWaiter interface {
	WaitCleanups(ctx context.Context) error
}

var _ component.Component = (*Dispatcher)(nil)

// Name returns the component name.
func (d *Dispatcher) Name() string { return "voice-pipeline" }

// Start is a no-op; invocations start on Dispatch.
func (d *Dispatcher) Start(context.Context) error { return nil }

// Stop waits for in-flight invocations and then for pending cleanups.
func (d *Dispatcher) Stop(ctx context.Context) error {
	if n := d.InFlight(); n > 0 {
		d.log.Info("waiting for in-flight voice messages", logger.Fields("in_flight", n))
	}
	if err := d.Wait(ctx); err != nil {
		return fmt.Errorf("voice pipeline: %d invocations still running: %w", d.InFlight(), err)
	}
	if cw, ok := d.handler.(cleanupWaiter); ok {
		if err := cw.WaitCleanups(ctx); err != nil {
			return fmt.Errorf("voice pipeline: cleanups pending: %w", err)
		}
	}
	return nil
}

// Health reports degraded while messages are queued for a slot.
func (d *Dispatcher) Health(context.Context) component.Health {
	h := component.Health{Name: d.Name(), Status: component.StatusHealthy}
	if d.bulkhead != nil && d.bulkhead.Waiting() > 0 {
		h.Status = component.StatusDegraded
		h.Message = fmt.Sprintf("%d messages waiting for a slot", d.bulkhead.Waiting())
		return h
	}
	h.Message = fmt.Sprintf("in_flight=%d dropped=%d", d.InFlight(), d.Dropped())
	return h
}

// Describe returns infrastructure summary info for the bootstrap display.
func (d *Dispatcher) Describe() component.Description {
	limit := "unbounded"
	if d.bulkhead != nil {
		limit = fmt.Sprintf("%d", d.bulkhead.MaxConcurrent())
	}
	details := fmt.Sprintf("max_concurrent=%s cleanup_on_failure=%t", limit, d.cfg.CleanupOnFailure)
	if d.details != "" {
		details = d.details + " " + details
	}
	return component.Description{Name: "Voice pipeline", Type: "pipeline", Details: details}
}
