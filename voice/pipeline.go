package voice

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kbukum/voicescribe/errors"
	"github.com/kbukum/voicescribe/httpclient"
	"github.com/kbukum/voicescribe/logger"
	"github.com/kbukum/voicescribe/observability"
	"github.com/kbukum/voicescribe/storage"
	"github.com/kbukum/voicescribe/transcription"
)

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Messenger   Messenger
	Downloader  Downloader
	Storage     storage.Storage
	Transcriber transcription.Provider
	// Metrics may be nil.
	Metrics *observability.Metrics
}

// Pipeline turns one voice message into one transcript reply.
//
// Steps run strictly in order and none is retried. A failing step is logged
// once and ends the invocation; the user has then seen the acknowledgment and
// nothing else. Deleting the working file happens in the background after the
// reply and is never awaited by Handle.
type Pipeline struct {
	deps Deps
	cfg  Config
	log  *logger.Logger

	cleanups sync.WaitGroup
	newID    func() string
}

// NewPipeline creates a pipeline.
func NewPipeline(deps Deps, cfg Config, log *logger.Logger) *Pipeline {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		deps:  deps,
		cfg:   cfg,
		log:   log.WithComponent("voice"),
		newID: uuid.NewString,
	}
}

var _ Handler = (*Pipeline)(nil)

// invocation carries per-message state through the steps.
type invocation struct {
	msg     Message
	key     string
	log     *logger.Logger
	written bool
}

// Handle runs the pipeline for msg. Messages without a voice attachment are
// ignored without any side effect. The returned error is the AppError of the
// failing step and has already been logged.
func (p *Pipeline) Handle(ctx context.Context, msg Message) (Outcome, error) {
	if msg.Voice == nil {
		return OutcomeIgnored, nil
	}

	requestID := p.newID()
	ctx = logger.ContextWithRequestID(ctx, requestID)
	inv := &invocation{
		msg: msg,
		key: storage.Key(msg.Voice.UniqueID),
		log: p.log.WithContext(ctx).WithFields(logger.Fields(
			logger.FieldChatID, msg.ChatID,
			logger.FieldFileUniqueID, msg.Voice.UniqueID,
		)),
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanVoiceMessage)
	span.SetAttributes(
		attribute.Int64(observability.AttrChatID, msg.ChatID),
		attribute.String(observability.AttrFileUniqueID, msg.Voice.UniqueID),
		attribute.String(observability.AttrRequestID, requestID),
	)
	p.deps.Metrics.InvocationStarted(ctx)

	outcome, err := p.run(ctx, inv)

	span.SetAttributes(attribute.String(observability.AttrOutcome, string(outcome)))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	p.deps.Metrics.InvocationFinished(ctx, string(outcome))
	return outcome, err
}

func (p *Pipeline) run(ctx context.Context, inv *invocation) (Outcome, error) {
	inv.log.Debug("voice message received")

	if err := p.step(ctx, inv, StepAcknowledge, func(ctx context.Context) error {
		return p.acknowledge(ctx, inv)
	}); err != nil {
		return OutcomeFailed, err
	}

	var filePath string
	if err := p.step(ctx, inv, StepResolve, func(ctx context.Context) (err error) {
		filePath, err = p.resolve(ctx, inv)
		return err
	}); err != nil {
		return OutcomeFailed, err
	}

	var data []byte
	if err := p.step(ctx, inv, StepFetch, func(ctx context.Context) (err error) {
		data, err = p.fetch(ctx, filePath)
		return err
	}); err != nil {
		return OutcomeFailed, err
	}

	if err := p.step(ctx, inv, StepPersist, func(ctx context.Context) error {
		return p.persist(ctx, inv, data)
	}); err != nil {
		return OutcomeFailed, err
	}

	var audio []byte
	if err := p.step(ctx, inv, StepLoad, func(ctx context.Context) (err error) {
		audio, err = p.load(ctx, inv)
		return err
	}); err != nil {
		return OutcomeFailed, p.abandon(inv, err)
	}

	var result *transcription.Response
	if err := p.step(ctx, inv, StepTranscribe, func(ctx context.Context) (err error) {
		result, err = p.transcribe(ctx, inv, audio)
		return err
	}); err != nil {
		return OutcomeFailed, p.abandon(inv, err)
	}

	replyErr := p.step(ctx, inv, StepReply, func(ctx context.Context) error {
		return p.reply(ctx, inv, result.Text)
	})
	p.scheduleCleanup(inv)
	if replyErr != nil {
		return OutcomeReplyFailed, replyErr
	}

	inv.log.Info("transcript sent", logger.Fields("found", result.Found, "chars", len(result.Text)))
	return OutcomeReplied, nil
}

// step runs fn inside a traced step and logs its failure exactly once.
func (p *Pipeline) step(ctx context.Context, inv *invocation, name string, fn func(context.Context) error) error {
	ctx, end := observability.TrackStep(ctx, p.deps.Metrics, name)
	err := fn(ctx)
	end(err)
	if err == nil {
		return nil
	}

	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.Internal(err)
	}
	appErr.WithDetail("step", name)

	p.deps.Metrics.RecordStepError(ctx, name, string(appErr.Code))
	inv.log.Error("voice pipeline step failed", logger.ErrorFields(name, appErr))
	return appErr
}

// abandon handles a failure after the working file was written.
func (p *Pipeline) abandon(inv *invocation, err error) error {
	if inv.written && p.cfg.CleanupOnFailure {
		p.scheduleCleanup(inv)
	}
	return err
}

func (p *Pipeline) acknowledge(ctx context.Context, inv *invocation) error {
	if err := p.deps.Messenger.SendText(ctx, inv.msg.ChatID, AckText); err != nil {
		return errors.ExternalServiceError("telegram", err)
	}
	return nil
}

func (p *Pipeline) resolve(ctx context.Context, inv *invocation) (string, error) {
	path, err := p.deps.Messenger.FilePath(ctx, inv.msg.Voice.FileID)
	if err != nil {
		return "", errors.ExternalServiceError("telegram", err)
	}
	return path, nil
}

func (p *Pipeline) fetch(ctx context.Context, filePath string) ([]byte, error) {
	data, err := p.deps.Downloader.Download(ctx, p.deps.Messenger.FileURL(filePath))
	if err != nil {
		if httpclient.IsTimeout(err) {
			return nil, errors.Timeout("download").WithCause(err)
		}
		return nil, errors.ExternalServiceError("telegram file", err)
	}
	return data, nil
}

func (p *Pipeline) persist(ctx context.Context, inv *invocation, data []byte) error {
	if err := p.deps.Storage.Upload(ctx, inv.key, data); err != nil {
		return errors.StorageError("write", err)
	}
	inv.written = true
	inv.log.Debug("working file written", logger.Fields(
		logger.FieldPath, p.deps.Storage.Path(inv.key),
		"bytes", len(data),
	))
	return nil
}

func (p *Pipeline) load(ctx context.Context, inv *invocation) ([]byte, error) {
	audio, err := p.deps.Storage.Download(ctx, inv.key)
	if err != nil {
		return nil, errors.StorageError("read", err)
	}
	return audio, nil
}

func (p *Pipeline) transcribe(ctx context.Context, inv *invocation, audio []byte) (*transcription.Response, error) {
	start := time.Now()
	resp, err := p.deps.Transcriber.Transcribe(ctx, transcription.Request{
		FileName:    inv.key,
		ContentType: "audio/ogg",
		Audio:       audio,
	})
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		if httpclient.IsTimeout(err) {
			return nil, errors.Timeout("transcription").WithCause(err)
		}
		return nil, errors.ExternalServiceError(p.deps.Transcriber.Name(), err)
	}
	inv.log.Debug("transcription received", logger.Fields(
		"provider", p.deps.Transcriber.Name(),
		"found", resp.Found,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return resp, nil
}

func (p *Pipeline) reply(ctx context.Context, inv *invocation, text string) error {
	if err := p.deps.Messenger.SendText(ctx, inv.msg.ChatID, text); err != nil {
		return errors.ExternalServiceError("telegram", err)
	}
	return nil
}

// scheduleCleanup deletes the working file in the background.
func (p *Pipeline) scheduleCleanup(inv *invocation) {
	p.cleanups.Add(1)
	go func() {
		defer p.cleanups.Done()
		ctx := context.Background()
		if err := p.deps.Storage.Delete(ctx, inv.key); err != nil {
			appErr := errors.StorageError("delete", err).WithDetail("step", StepCleanup)
			p.deps.Metrics.RecordStepError(ctx, StepCleanup, string(appErr.Code))
			inv.log.Error("voice pipeline step failed", logger.Fields(
				logger.FieldOperation, StepCleanup,
				logger.FieldError, appErr.Error(),
			))
			return
		}
		inv.log.Debug("working file removed", logger.Fields(logger.FieldPath, p.deps.Storage.Path(inv.key)))
	}()
}

// WaitCleanups blocks until scheduled deletions finish or ctx is done.
func (p *Pipeline) WaitCleanups(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.cleanups.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
