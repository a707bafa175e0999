package voice

import "context"

// AckText is sent to the chat as soon as a voice message arrives.
const AckText = "Received a voice recording!"

// Pipeline step names. They appear as the "operation" log field, the "step"
// error detail and the step metric attribute.
const (
	StepAcknowledge = "acknowledge"
	StepResolve     = "resolve"
	StepFetch       = "fetch"
	StepPersist     = "persist"
	StepLoad        = "load"
	StepTranscribe  = "transcribe"
	StepReply       = "reply"
	StepCleanup     = "cleanup"
)

// Attachment identifies a voice recording on the chat platform.
type Attachment struct {
	// FileID is the opaque handle used to resolve the download path.
	FileID string
	// UniqueID is stable across bots and names the working file.
	UniqueID string
}

// Message is an inbound chat message as seen by the pipeline.
type Message struct {
	ChatID int64
	// Voice is nil for messages without a voice recording.
	Voice *Attachment
}

// Outcome summarizes how an invocation ended.
type Outcome string

const (
	// OutcomeIgnored means the message had no voice attachment.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeReplied means the transcript (or placeholder) was sent.
	OutcomeReplied Outcome = "replied"
	// OutcomeReplyFailed means transcription succeeded but the reply was not delivered.
	OutcomeReplyFailed Outcome = "reply_failed"
	// OutcomeFailed means a step before the reply aborted the invocation.
	OutcomeFailed Outcome = "failed"
)

// Messenger is the chat platform as used by the pipeline.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	FilePath(ctx context.Context, fileID string) (string, error)
	FileURL(path string) string
}

// Downloader fetches a file by absolute URL.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Handler processes a single message.
type Handler interface {
	Handle(ctx context.Context, msg Message) (Outcome, error)
}
