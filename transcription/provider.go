package transcription

import "context"

// Provider is the interface that transcription backends implement.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// IsAvailable reports whether the provider is configured to accept requests.
	IsAvailable(ctx context.Context) bool

	// Transcribe sends audio for transcription. A response without a
	// transcript is not an error: Text is Placeholder and Found is false.
	Transcribe(ctx context.Context, req Request) (*Response, error)
}
