package transcription

import (
	"encoding/json"
	"fmt"
)

// Placeholder is the reply used when a response carries no transcript.
const Placeholder = "No text found"

// Request holds parameters for a transcription call.
type Request struct {
	// FileName is the name the audio is uploaded under.
	FileName string `json:"file_name"`
	// ContentType is the MIME type of Audio. Empty lets the provider decide.
	ContentType string `json:"content_type,omitempty"`
	// Audio is the encoded audio.
	Audio []byte `json:"-"`
	// Language is an optional language hint (e.g. "en").
	Language string `json:"language,omitempty"`
}

// Response holds the result of a transcription call.
type Response struct {
	// Text is the transcript, or Placeholder when Found is false.
	Text string `json:"text"`
	// Found reports whether the service returned a transcript.
	Found bool `json:"found"`
	// Raw is the unparsed response body, when the provider has one.
	Raw string `json:"-"`
}

// ParseText parses body as a generic JSON document and extracts the
// top-level string field "text". A document without such a field yields
// Placeholder and found=false. Only a body that is not JSON is an error.
func ParseText(body string) (text string, found bool, err error) {
	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return "", false, fmt.Errorf("parse transcription response: %w", err)
	}
	if obj, ok := doc.(map[string]any); ok {
		if s, ok := obj["text"].(string); ok {
			return s, true, nil
		}
	}
	return Placeholder, false, nil
}

// NewResponse builds a Response from a parsed transcript.
func NewResponse(text string, found bool, raw string) *Response {
	if !found {
		text = Placeholder
	}
	return &Response{Text: text, Found: found, Raw: raw}
}
